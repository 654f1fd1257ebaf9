package phoneme

// SplitMora splits a phoneme sequence into moras.
//
// vowelIndexes holds the positions of mora-bearing phonemes, vowels the
// phonemes at those positions, and consonants the phoneme right before each
// vowel when it is not itself mora-bearing (nil otherwise). The three slices
// always have equal length and consonants[0] is always nil: synthesis input
// starts with a Space phoneme.
func SplitMora(ps []Phoneme) (consonants []*Phoneme, vowels []Phoneme, vowelIndexes []int) {
	for i, p := range ps {
		if IsMoraPhoneme(p.Symbol) {
			vowelIndexes = append(vowelIndexes, i)
		}
	}
	if len(vowelIndexes) == 0 {
		return nil, nil, nil
	}
	vowels = make([]Phoneme, len(vowelIndexes))
	for i, idx := range vowelIndexes {
		vowels[i] = ps[idx]
	}
	consonants = make([]*Phoneme, len(vowelIndexes))
	for i := 1; i < len(vowelIndexes); i++ {
		prev, next := vowelIndexes[i-1], vowelIndexes[i]
		if next-prev == 1 {
			continue
		}
		c := ps[next-1]
		consonants[i] = &c
	}
	return consonants, vowels, vowelIndexes
}
