package util

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// ModelLoadError reports a missing or malformed persisted model.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed loading model %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Cause() error {
	return e.Err
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// Encode writes data as a snappy-framed gob stream.
func Encode(writer io.Writer, data interface{}) error {
	comp := snappy.NewBufferedWriter(writer)
	if err := gob.NewEncoder(comp).Encode(data); err != nil {
		comp.Close()
		return errors.Wrap(err, "gob encode")
	}
	return errors.Wrap(comp.Close(), "snappy flush")
}

// Decode reads a stream written by Encode into data.
func Decode(reader io.Reader, data interface{}) error {
	decomp := snappy.NewReader(bufio.NewReader(reader))
	return errors.Wrap(gob.NewDecoder(decomp).Decode(data), "gob decode")
}

func WriteModel(file string, data interface{}) error {
	fObj, err := os.Create(file)
	if err != nil {
		return errors.Wrapf(err, "failed creating model file %s", file)
	}
	if err := Encode(fObj, data); err != nil {
		fObj.Close()
		return errors.Wrapf(err, "failed writing model file %s", file)
	}
	return errors.Wrapf(fObj.Close(), "failed closing model file %s", file)
}

func ReadModel(file string, data interface{}) error {
	fObj, err := os.Open(file)
	if err != nil {
		return &ModelLoadError{file, err}
	}
	defer fObj.Close()
	if err := Decode(fObj, data); err != nil {
		return &ModelLoadError{file, err}
	}
	return nil
}
