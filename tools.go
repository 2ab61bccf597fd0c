//go:build tools

package tools

// Build-time tools used via go:generate.
import (
	_ "github.com/dmarkham/enumer"
)
