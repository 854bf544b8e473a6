package util

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// MD5File fingerprints an input file so that logs identify the exact data
// a model was trained on.
func MD5File(fileName string) (string, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return "", errors.Wrapf(err, "failed opening %s", fileName)
	}
	defer file.Close()

	md5 := md5.New()
	if _, err := io.Copy(md5, file); err != nil {
		return "", errors.Wrapf(err, "failed reading %s", fileName)
	}

	return fmt.Sprintf("%x", md5.Sum(nil)), nil
}
