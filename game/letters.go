package game

import "crypto/rand"

// letterWeights approximates natural-language letter frequency: vowels and
// common consonants appear several times more often than Q, X or Z.
var letterWeights = map[byte]int{
	'A': 9, 'B': 2, 'C': 2, 'D': 4, 'E': 8, 'F': 2, 'G': 3, 'H': 2,
	'I': 9, 'J': 1, 'K': 1, 'L': 4, 'M': 2, 'N': 6, 'O': 8, 'P': 2,
	'Q': 1, 'R': 6, 'S': 4, 'T': 6, 'U': 4, 'V': 2, 'W': 2, 'X': 1,
	'Y': 2, 'Z': 1,
}

var letterPool = buildLetterPool()

func buildLetterPool() []byte {
	var pool []byte
	for l := byte('A'); l <= 'Z'; l++ {
		for i := 0; i < letterWeights[l]; i++ {
			pool = append(pool, l)
		}
	}
	return pool
}

// DrawLetter returns a frequency-weighted random uppercase letter for a round.
func DrawLetter() string {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return string(letterPool[int(b[0])%len(letterPool)])
}
