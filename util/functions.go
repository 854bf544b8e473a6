package util

import (
	"log"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"github.com/dustin/go-humanize"
)

func RangeInt(to int) []int {
	retval := make([]int, to)
	for i := 0; i < to; i++ {
		retval[i] = i
	}
	return retval
}

func Max(a, b int) int {
	if a < b {
		return b
	}
	return a
}

func Min(a, b int) int {
	if a > b {
		return b
	}
	return a
}

// Portion deterministically selects ceil(portion*n) of n indices using a
// permutation seeded with seed. The selected indices are returned in
// ascending order. A portion of 1 or more selects everything.
func Portion(n int, portion float64, seed int64) []int {
	if portion >= 1.0 || n == 0 {
		return RangeInt(n)
	}
	if portion <= 0 {
		return []int{}
	}
	// the tolerance absorbs float error in products like 0.1*30
	size := int(math.Ceil(float64(n)*portion - 1e-9))
	size = Min(Max(size, 1), n)
	selected := rand.New(rand.NewSource(seed)).Perm(n)[:size]
	sort.Ints(selected)
	return selected
}

func LogMemory(logger *log.Logger) {
	if logger == nil {
		return
	}
	s := &runtime.MemStats{}
	runtime.ReadMemStats(s)
	logger.Println("*** Memory Info ***")
	logger.Println("Bytes Allocated InUse:\t", humanize.Bytes(s.Alloc))
	logger.Println("Mallocs:\t\t", humanize.Comma(int64(s.Mallocs)))
	logger.Println("Frees:\t\t\t", humanize.Comma(int64(s.Frees)))
	logger.Println("Heap Allocated InUse:\t", humanize.Bytes(s.HeapAlloc))
	logger.Println("Heap Objects:\t\t", humanize.Comma(int64(s.HeapObjects)))
	logger.Println("*** ***")
}

type TopNStrIntDatum struct {
	S string
	N int
}

type TopNStrIntData []TopNStrIntDatum

func (arr TopNStrIntData) Len() int {
	return len(arr)
}

func (arr TopNStrIntData) Swap(a, b int) {
	arr[a], arr[b] = arr[b], arr[a]
}

func (arr TopNStrIntData) Less(a, b int) bool {
	if arr[a].N != arr[b].N {
		return arr[a].N > arr[b].N
	}
	return arr[a].S < arr[b].S
}

func GetTopNStrInt(m map[string]int, n int) []TopNStrIntDatum {
	data := make(TopNStrIntData, len(m))
	var i int
	for k, v := range m {
		data[i] = TopNStrIntDatum{k, v}
		i++
	}
	sort.Sort(data)
	return data[:Min(len(data), n)]
}
