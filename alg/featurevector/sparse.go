package featurevector

import (
	"fmt"
	"sort"
	"strings"
)

// Sparse maps feature names to values. It serves both as the feature vector
// extracted from a state and as the weight vector of a linear model; a
// missing key has value 0.
type Sparse map[string]float64

func (v Sparse) Copy() Sparse {
	copied := make(Sparse, len(v))
	for k, val := range v {
		copied[k] = val
	}
	return copied
}

func (v Sparse) UpdateAdd(other Sparse) Sparse {
	return v.UpdateAddScaled(other, 1.0)
}

func (v Sparse) UpdateSubtract(other Sparse) Sparse {
	return v.UpdateAddScaled(other, -1.0)
}

// UpdateAddScaled adds amount*other to v in place. Entries that cancel out
// are removed so the vector stays sparse.
func (v Sparse) UpdateAddScaled(other Sparse, amount float64) Sparse {
	var val float64
	for key, otherVal := range other {
		// v[key] == 0 if v[key] does not exist
		val = v[key] + amount*otherVal
		if val != 0.0 {
			v[key] = val
		} else {
			delete(v, key)
		}
	}
	return v
}

func (v Sparse) UpdateScalarDivide(byValue float64) Sparse {
	if byValue == 0.0 {
		panic("Divide by 0")
	}
	for key, val := range v {
		v[key] = val / byValue
	}
	return v
}

func (v Sparse) DotProduct(other Sparse) float64 {
	// iterate over the shorter vector, in key order so that float sums
	// do not depend on map order
	vec1, vec2 := v, other
	if len(vec2) > len(vec1) {
		vec1, vec2 = vec2, vec1
	}
	var result float64
	for _, key := range vec2.Keys() {
		result += vec1[key] * vec2[key]
	}
	return result
}

// Keys returns the feature names in sorted order.
func (v Sparse) Keys() []string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (v Sparse) Equal(other Sparse) bool {
	if len(v) != len(other) {
		return false
	}
	for key, val := range v {
		if otherVal, exists := other[key]; !exists || otherVal != val {
			return false
		}
	}
	return true
}

func (v Sparse) String() string {
	strs := make([]string, 0, len(v))
	for _, feat := range v.Keys() {
		strs = append(strs, fmt.Sprintf("%v %v", feat, v[feat]))
	}
	return strings.Join(strs, "\n")
}

// Average returns the unweighted mean of the given vectors; each vector
// contributes equally regardless of how it was trained.
func Average(vectors ...Sparse) Sparse {
	retval := NewSparse()
	if len(vectors) == 0 {
		return retval
	}
	for _, vec := range vectors {
		retval.UpdateAdd(vec)
	}
	return retval.UpdateScalarDivide(float64(len(vectors)))
}

func NewSparse() Sparse {
	return make(Sparse)
}
