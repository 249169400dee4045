package constants

import "errors"

// CLI errors.
var (
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
	ErrUnknownOutput      = errors.New("unknown output format")
	ErrTemplateFileNeeded = errors.New("a template file is required (--file)")
	ErrNoPatchFields      = errors.New("no fields to update were given")
)
