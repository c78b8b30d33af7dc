// Package draw selects a raffle winner with probability proportional to
// ticket count.
//
// Entries are laid out on a line of T = sum(weights) tickets in the order
// given; entry i owns the half-open range [prefix(i), prefix(i)+weights[i]).
// A uniform ticket r in [0, T) selects the entry whose range contains it, so
// entry i wins with probability weights[i]/T regardless of its position.
package draw

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
)

var (
	ErrEmpty         = errors.New("draw: no entries")
	ErrInvalidWeight = errors.New("draw: weights must be positive")
	ErrTicketRange   = errors.New("draw: ticket out of range")
)

// Source yields uniform integers in [0, n).
type Source interface {
	IntN(n int) (int, error)
}

type cryptoSource struct{}

// CryptoSource returns a Source backed by crypto/rand.
func CryptoSource() Source {
	return cryptoSource{}
}

func (cryptoSource) IntN(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("draw: invalid bound %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("draw: read random: %w", err)
	}
	return int(v.Int64()), nil
}

// Result is the outcome of a draw: the winning index, the ticket that was
// drawn and the total number of tickets in play.
type Result struct {
	Index  int
	Ticket int
	Total  int
}

// PrefixSums returns the cumulative weights; element i is the exclusive upper
// bound of entry i's range.
func PrefixSums(weights []int) ([]int, error) {
	if len(weights) == 0 {
		return nil, ErrEmpty
	}
	sums := make([]int, len(weights))
	acc := 0
	for i, w := range weights {
		if w < 1 {
			return nil, ErrInvalidWeight
		}
		acc += w
		sums[i] = acc
	}
	return sums, nil
}

// Select maps a ticket in [0, T) to the index of the entry that owns it.
func Select(weights []int, ticket int) (int, error) {
	sums, err := PrefixSums(weights)
	if err != nil {
		return 0, err
	}
	return selectFromSums(sums, ticket)
}

func selectFromSums(sums []int, ticket int) (int, error) {
	total := sums[len(sums)-1]
	if ticket < 0 || ticket >= total {
		return 0, ErrTicketRange
	}
	// First range whose exclusive upper bound exceeds the ticket.
	return sort.Search(len(sums), func(i int) bool { return sums[i] > ticket }), nil
}

// Draw picks a uniformly random ticket from src and resolves its owner.
func Draw(weights []int, src Source) (Result, error) {
	sums, err := PrefixSums(weights)
	if err != nil {
		return Result{}, err
	}
	total := sums[len(sums)-1]
	ticket, err := src.IntN(total)
	if err != nil {
		return Result{}, err
	}
	idx, err := selectFromSums(sums, ticket)
	if err != nil {
		return Result{}, err
	}
	return Result{Index: idx, Ticket: ticket, Total: total}, nil
}
