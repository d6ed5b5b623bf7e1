package service

import (
	"fmt"
)

type ErrJobNotFound struct {
	error
}

func NewErrJobNotFound(id string) *ErrJobNotFound {
	return &ErrJobNotFound{fmt.Errorf("import job %s not found", id)}
}

type ErrTooManyImports struct {
	error
}

func NewErrTooManyImports() *ErrTooManyImports {
	return &ErrTooManyImports{fmt.Errorf("too many concurrent imports, try again later")}
}

type ErrEmptyFile struct {
	error
}

func NewErrEmptyFile() *ErrEmptyFile {
	return &ErrEmptyFile{fmt.Errorf("file must not be empty")}
}

type ErrInvalidContentType struct {
	error
}

func NewErrInvalidContentType(contentType string) *ErrInvalidContentType {
	return &ErrInvalidContentType{fmt.Errorf("invalid file type %q, only CSV is allowed", contentType)}
}
