package langmodel

import (
	_ "embed"
	"sync"
)

//go:embed data/english.txt
var englishCorpus string

// englishFrequencies are the usual English letter percentages.
var englishFrequencies = [Alphabet]float64{
	8.167, 1.492, 2.782, 4.253, 12.702, 2.228, 2.015, 6.094, 6.966, 0.153,
	0.772, 4.025, 2.406, 6.749, 7.507, 1.929, 0.095, 5.987, 6.327, 9.056,
	2.758, 0.978, 2.360, 0.150, 1.974, 0.074,
}

var english = sync.OnceValue(func() *Model {
	b := NewBuilder("english")
	b.AddText(englishCorpus)
	b.SetLetterFrequencies(englishFrequencies)
	m, err := b.Build()
	if err != nil {
		panic("langmodel: built-in English model: " + err.Error())
	}
	return m
})

// English returns the built-in English model. It is built on first use and
// shared afterwards.
func English() *Model {
	return english()
}

// Corpus returns the embedded English reference text.
func Corpus() string {
	return englishCorpus
}
