package pipeline

// Assemble concatenates the pairs of each song in the order given. Callers
// pass only songs that reconciled and partitioned completely, so a song is
// either wholly in the deck or absent.
func Assemble(songs []SongPairs) Deck {
	total := 0
	for _, s := range songs {
		total += len(s.Pairs)
	}
	deck := make(Deck, 0, total)
	for _, s := range songs {
		deck = append(deck, s.Pairs...)
	}
	return deck
}
