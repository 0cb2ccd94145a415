package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"reviewsentiment/config"
	"reviewsentiment/sentiment"
)

// StratifiedSplit partitions docs into train and test so each keeps the
// overall class ratio. The test partition holds ceil(testFraction*len(docs))
// documents; per-class test counts are rounded by largest remainder. The
// same seed yields the same partitions.
func StratifiedSplit(docs []sentiment.Document, testFraction float64, seed int64) ([]sentiment.Document, []sentiment.Document, error) {
	if !(testFraction > 0 && testFraction < 1) {
		return nil, nil, fmt.Errorf("%w: test fraction must be in (0,1), got %v", config.ErrConfiguration, testFraction)
	}

	var byClass [2][]int
	for i, d := range docs {
		switch d.Label {
		case sentiment.Negative:
			byClass[0] = append(byClass[0], i)
		case sentiment.Positive:
			byClass[1] = append(byClass[1], i)
		default:
			return nil, nil, fmt.Errorf("dataset: document %d has non-canonical label %v", i, d.Label)
		}
	}
	for k, idx := range byClass {
		if len(idx) < 2 {
			return nil, nil, fmt.Errorf("%w: class %v has %d rows, need at least 2",
				ErrInsufficientClasses, sentiment.Classes[k], len(idx))
		}
	}

	n := len(docs)
	nTest := int(math.Ceil(testFraction * float64(n)))
	nTrain := n - nTest
	if nTest < 2 || nTrain < 2 {
		return nil, nil, fmt.Errorf("%w: %d rows with test fraction %v leave %d train and %d test rows, need at least 2 each",
			ErrInsufficientClasses, n, testFraction, nTrain, nTest)
	}

	counts := [2]int{len(byClass[0]), len(byClass[1])}
	alloc := allocateTest(nTest, counts)

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for k, idx := range byClass {
		shuffled := append([]int(nil), idx...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		testIdx = append(testIdx, shuffled[:alloc[k]]...)
		trainIdx = append(trainIdx, shuffled[alloc[k]:]...)
	}
	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })

	return pick(docs, trainIdx), pick(docs, testIdx), nil
}

// allocateTest splits nTest across classes proportionally to counts, keeping
// at least one row of each class on the train side.
func allocateTest(nTest int, counts [2]int) [2]int {
	n := counts[0] + counts[1]
	var alloc [2]int
	type rem struct {
		k    int
		frac float64
	}
	rems := make([]rem, 0, 2)
	given := 0
	for k, c := range counts {
		exact := float64(nTest) * float64(c) / float64(n)
		alloc[k] = int(math.Floor(exact))
		given += alloc[k]
		rems = append(rems, rem{k, exact - float64(alloc[k])})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; given < nTest; i++ {
		alloc[rems[i%2].k]++
		given++
	}

	for k := range alloc {
		if over := alloc[k] - (counts[k] - 1); over > 0 {
			alloc[k] -= over
			o := 1 - k
			alloc[o] += min(over, counts[o]-1-alloc[o])
		}
	}
	return alloc
}

func pick(docs []sentiment.Document, idx []int) []sentiment.Document {
	out := make([]sentiment.Document, len(idx))
	for i, j := range idx {
		out[i] = docs[j]
	}
	return out
}
