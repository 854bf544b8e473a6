// Package da reads dialogue act files: one DA per line, e.g.
//
//	inform(food=Italian,area=centre)&request(phone)
//
// Empty lines and lines starting with '#' are skipped.
package da

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/AnneBeyer/tgen/nlp/types"

	"github.com/pkg/errors"
)

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// split cuts s at every sep outside single or double quotes.
func split(s string, sep byte) ([]string, error) {
	var (
		retval []string
		quote  byte
		start  int
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == sep:
			retval = append(retval, s[start:i])
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, errors.Errorf("unterminated quote in %q", s)
	}
	return append(retval, s[start:]), nil
}

// Parse reads a single DA. An item type with several slots yields one
// item per slot, in order. Values may be quoted with ' or "; separators
// inside quotes are part of the value.
func Parse(line string) (types.DA, error) {
	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return nil, errors.New("empty DA")
	}
	items, err := split(line, types.DAI_SEPARATOR[0])
	if err != nil {
		return nil, err
	}
	var retval types.DA
	for _, item := range items {
		item = strings.TrimSpace(item)
		open := strings.IndexByte(item, '(')
		if open <= 0 || item[len(item)-1] != ')' {
			return nil, errors.Errorf("malformed DA item %q", item)
		}
		daType, args := item[:open], strings.TrimSpace(item[open+1:len(item)-1])
		if len(args) == 0 {
			retval = append(retval, types.DAI{Type: daType})
			continue
		}
		slots, err := split(args, ',')
		if err != nil {
			return nil, err
		}
		for _, arg := range slots {
			slot, value := arg, ""
			if parts, _ := split(arg, '='); len(parts) > 1 {
				slot, value = parts[0], unquote(arg[len(parts[0])+1:])
			}
			slot = strings.TrimSpace(slot)
			if len(slot) == 0 {
				return nil, errors.Errorf("empty slot in DA item %q", item)
			}
			retval = append(retval, types.DAI{Type: daType, Slot: slot, Value: value})
		}
	}
	return retval, nil
}

func Read(reader io.Reader, limit int) ([]types.DA, error) {
	var das []types.DA
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lineNum int
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		da, err := Parse(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}
		das = append(das, da)
		if limit > 0 && len(das) >= limit {
			break
		}
	}
	return das, errors.Wrap(scanner.Err(), "reading DAs")
}

func ReadFile(filename string, limit int) ([]types.DA, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening %s", filename)
	}
	defer file.Close()

	das, err := Read(file, limit)
	return das, errors.Wrapf(err, "in %s", filename)
}
