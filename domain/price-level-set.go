package domain

import (
	"iter"
	"sort"
)

// PriceLevelSet holds one side of a book sorted best-first and unique by price.
// Bids are kept price-descending and asks price-ascending.
type PriceLevelSet struct {
	side   Side
	levels []PriceLevel
}

func NewPriceLevelSet(side Side) *PriceLevelSet {
	return &PriceLevelSet{side: side}
}

func (s *PriceLevelSet) Side() Side {
	return s.side
}

func (s *PriceLevelSet) Len() int {
	return len(s.levels)
}

// better reports whether level a sorts ahead of level b on this side.
func (s *PriceLevelSet) better(a, b PriceLevel) bool {
	if s.side == Side_Bid {
		return a.Price.GreaterThan(b.Price)
	}
	return a.Price.LessThan(b.Price)
}

// search returns the position of level's price and whether it is already stored.
func (s *PriceLevelSet) search(level PriceLevel) (int, bool) {
	i := sort.Search(len(s.levels), func(i int) bool {
		return !s.better(s.levels[i], level)
	})
	return i, i < len(s.levels) && s.levels[i].Price.Equal(level.Price)
}

// Upsert inserts or replaces the level at its price, or removes the price when size is zero.
func (s *PriceLevelSet) Upsert(level PriceLevel) {
	i, found := s.search(level)

	if level.Size.IsZero() {
		if found {
			s.levels = append(s.levels[:i], s.levels[i+1:]...)
		}
		return
	}

	if found {
		s.levels[i] = level
		return
	}

	s.levels = append(s.levels, PriceLevel{})
	copy(s.levels[i+1:], s.levels[i:])
	s.levels[i] = level
}

// ReplaceAll discards every stored level and installs levels re-sorted for this side.
// Zero sizes are dropped and the last occurrence of a duplicated price wins.
func (s *PriceLevelSet) ReplaceAll(levels []PriceLevel) {
	installed := make([]PriceLevel, 0, len(levels))
	for _, level := range levels {
		if !level.Size.IsZero() {
			installed = append(installed, level)
		}
	}

	sort.SliceStable(installed, func(i, j int) bool {
		return s.better(installed[i], installed[j])
	})

	deduped := installed[:0]
	for _, level := range installed {
		if n := len(deduped); n > 0 && deduped[n-1].Price.Equal(level.Price) {
			deduped[n-1] = level
			continue
		}
		deduped = append(deduped, level)
	}

	s.levels = deduped
}

func (s *PriceLevelSet) Clear() {
	s.levels = nil
}

// Best returns the top of this side.
func (s *PriceLevelSet) Best() (PriceLevel, bool) {
	if len(s.levels) == 0 {
		return PriceLevel{}, false
	}
	return s.levels[0], true
}

// Top yields at most n best levels in side order. The sequence can be ranged over
// repeatedly; each pass reads the set as it is at that moment.
func (s *PriceLevelSet) Top(n int) iter.Seq[PriceLevel] {
	return func(yield func(PriceLevel) bool) {
		for i := 0; i < n && i < len(s.levels); i++ {
			if !yield(s.levels[i]) {
				return
			}
		}
	}
}

// At returns the level ranked i, best first.
func (s *PriceLevelSet) At(i int) (PriceLevel, bool) {
	if i < 0 || i >= len(s.levels) {
		return PriceLevel{}, false
	}
	return s.levels[i], true
}

// Levels copies out at most limit levels; limit <= 0 means the whole side.
func (s *PriceLevelSet) Levels(limit int) []PriceLevel {
	n := len(s.levels)
	if limit > 0 && n > limit {
		n = limit
	}

	out := make([]PriceLevel, 0, n)
	for level := range s.Top(n) {
		out = append(out, level)
	}
	return out
}
