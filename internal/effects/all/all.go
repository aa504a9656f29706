// Package all links every built-in style source into the binary.
package all

import (
	_ "github.com/ayusman/stylecam/internal/effects/adjust"
	_ "github.com/ayusman/stylecam/internal/effects/artistic"
	_ "github.com/ayusman/stylecam/internal/effects/basic"
	_ "github.com/ayusman/stylecam/internal/effects/color"
	_ "github.com/ayusman/stylecam/internal/effects/distort"
)
