package poker

import "math/bits"

// FindRanking evaluates a hand of 5-7 cards into its best ranking. The
// resolution order is straight flush, quads, full house, flush, straight,
// trips, two pair, one pair, high card; the first category that matches wins.
// Panics on an empty hand.
func FindRanking(h Hand) Ranking {
	if h == 0 {
		panic("evaluate empty hand")
	}
	flushSuit, hasFlush := findFlushSuit(h)
	if hasFlush {
		if high, ok := findStraight(h.SuitMask(flushSuit)); ok {
			return Ranking{Cat: StraightFlush, Hi: high}
		}
	}
	if quad, ok := findNOAKUnder(h, 4, NumRanks); ok {
		return Ranking{Cat: Quads, Hi: quad}
	}
	if trips, ok := findNOAKUnder(h, 3, NumRanks); ok {
		if pair, ok := findNOAKUnder(h, 2, trips); ok {
			return Ranking{Cat: FullHouse, Hi: trips, Lo: pair}
		}
	}
	if hasFlush {
		return Ranking{Cat: Flush, Hi: topRank(h.SuitMask(flushSuit))}
	}
	if high, ok := findStraight(h.RankMask()); ok {
		return Ranking{Cat: Straight, Hi: high}
	}
	if trips, ok := findNOAKUnder(h, 3, NumRanks); ok {
		return Ranking{Cat: Trips, Hi: trips}
	}
	if hi, ok := findNOAKUnder(h, 2, NumRanks); ok {
		if lo, ok := findNOAKUnder(h, 2, hi); ok {
			return Ranking{Cat: TwoPair, Hi: hi, Lo: lo}
		}
		return Ranking{Cat: OnePair, Hi: hi}
	}
	return Ranking{Cat: HighCard, Hi: topRank(h.RankMask())}
}

// FindKickers selects the side cards that break ties for the given ranking.
// Start from the rank mask with the ranking's consumed ranks removed, then
// clear the lowest bit until the expected count remains.
func FindKickers(h Hand, r Ranking) Kickers {
	var n int
	switch r.Cat {
	case HighCard:
		n = 4
	case OnePair:
		n = 3
	case Trips:
		n = 2
	case TwoPair, Quads:
		n = 1
	default:
		return 0
	}
	consumed := uint16(1) << r.Hi
	if r.Cat == TwoPair {
		consumed |= 1 << r.Lo
	}
	mask := h.RankMask() &^ consumed
	for bits.OnesCount16(mask) > n {
		mask &= mask - 1
	}
	return Kickers(mask)
}

// findFlushSuit reports the first suit holding at least five cards. At most
// one suit can reach five in a seven card hand.
func findFlushSuit(h Hand) (uint8, bool) {
	for s := uint8(0); s < NumSuits; s++ {
		if bits.OnesCount16(h.SuitMask(s)) >= 5 {
			return s, true
		}
	}
	return 0, false
}

// findStraight locates the high card of the best straight in a rank mask.
// Five consecutive ranks survive the shifted-AND cascade; the wheel is
// tested separately and reports the deck mode's fixed low-straight rank.
func findStraight(mask uint16) (uint8, bool) {
	seq := mask & (mask << 1) & (mask << 2) & (mask << 3) & (mask << 4)
	if seq != 0 {
		return topRank(seq), true
	}
	if wheel := deckMode.Wheel(); mask&wheel == wheel {
		return deckMode.LowestStraightRank(), true
	}
	return 0, false
}

// findNOAKUnder scans ranks below ceiling from high to low for the first
// rank holding at least n cards.
func findNOAKUnder(h Hand, n int, ceiling uint8) (uint8, bool) {
	x := uint64(h)
	for r := int(ceiling) - 1; r >= 0; r-- {
		nibble := (x >> (NumSuits * r)) & 0xF
		if bits.OnesCount64(nibble) >= n {
			return uint8(r), true
		}
	}
	return 0, false
}

func topRank(mask uint16) uint8 {
	return uint8(bits.Len16(mask) - 1)
}
