package types

import (
	"strings"
)

const (
	ROOT_TOKEN = "ROOT"
	ROOT_LABEL = "ROOT"

	DAI_SEPARATOR = "&"

	// characters that make a value need quoting in the DA text form
	DAI_SPECIAL = "&,=()\"'"
)

// DAI is a single dialogue act item, e.g. inform(food=Italian).
// Slot and Value may be empty.
type DAI struct {
	Type, Slot, Value string
}

func (d DAI) String() string {
	switch {
	case d.Slot == "":
		return d.Type + "()"
	case d.Value == "":
		return d.Type + "(" + d.Slot + ")"
	default:
		return d.Type + "(" + d.Slot + "=" + quoteValue(d.Value) + ")"
	}
}

func quoteValue(v string) string {
	switch {
	case !strings.ContainsAny(v, DAI_SPECIAL):
		return v
	case strings.ContainsRune(v, '"'):
		return "'" + v + "'"
	default:
		return `"` + v + `"`
	}
}

// SlotValue is the key the candidate generator and the feature extractor
// use for an item.
func (d DAI) SlotValue() string {
	if d.Value == "" {
		return d.TypeSlot()
	}
	return EscapeField(d.Slot) + "=" + EscapeField(d.Value)
}

// TypeSlot is the value-free key of an item.
func (d DAI) TypeSlot() string {
	return strings.Replace(EscapeField(d.Type), ":", `\:`, -1) + ":" + EscapeField(d.Slot)
}

// Realized reports whether lemma expresses the item. Items with a value
// are realized by their value, valueless items by their slot.
func (d DAI) Realized(lemma string) bool {
	if d.Value != "" {
		return strings.EqualFold(d.Value, lemma)
	}
	return d.Slot != "" && strings.EqualFold(d.Slot, lemma)
}

// DA is a dialogue act: an ordered sequence of items. Order matters for
// feature extraction only.
type DA []DAI

func (d DA) String() string {
	strs := make([]string, len(d))
	for i, dai := range d {
		strs[i] = dai.String()
	}
	return strings.Join(strs, DAI_SEPARATOR)
}

func (d DA) Equal(other DA) bool {
	if len(d) != len(other) {
		return false
	}
	for i, dai := range d {
		if dai != other[i] {
			return false
		}
	}
	return true
}

// Unrealized returns the items of d not expressed by any generated node
// lemma of t.
func (d DA) Unrealized(t *Tree) DA {
	if t == nil {
		return d
	}
	nodes := t.Nodes()
	retval := make(DA, 0, len(d))
	for _, dai := range d {
		realized := false
		for _, node := range nodes[1:] {
			if dai.Realized(node.Lemma) {
				realized = true
				break
			}
		}
		if !realized {
			retval = append(retval, dai)
		}
	}
	return retval
}
