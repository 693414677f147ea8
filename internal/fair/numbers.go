package fair

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"strconv"

	"github.com/tonlotto/platform/internal/domain"
)

// GenerateNumbers derives count distinct integers in [1, max] from the seed
// pair and nonce, returned sorted ascending.
//
// The generator walks a sha256 hash chain seeded with
// serverSeed || clientSeed || decimal(nonce) and consumes 32-bit big-endian
// words. Words at or above the largest multiple of max that fits in 32 bits
// are rejected so the modulo is unbiased; accepted words map to
// word%max + 1, duplicates are skipped. When a hash is exhausted the chain
// advances with h = sha256(h).
func GenerateNumbers(serverSeed, clientSeed string, nonce int64, count, max int) ([]int32, error) {
	if count < 1 {
		return nil, domain.ErrValidation("count must be at least 1")
	}
	if max < count {
		return nil, domain.ErrValidation("max must be at least count")
	}

	h := sha256.Sum256([]byte(serverSeed + clientSeed + strconv.FormatInt(nonce, 10)))
	limit := (uint64(1) << 32) / uint64(max) * uint64(max)

	picked := make(map[int32]bool, count)
	numbers := make([]int32, 0, count)
	offset := 0

	for len(numbers) < count {
		if offset+4 > len(h) {
			h = sha256.Sum256(h[:])
			offset = 0
		}
		word := uint64(binary.BigEndian.Uint32(h[offset : offset+4]))
		offset += 4

		if word >= limit {
			continue
		}
		n := int32(word%uint64(max)) + 1
		if picked[n] {
			continue
		}
		picked[n] = true
		numbers = append(numbers, n)
	}

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers, nil
}

// VerifyDraw recomputes a revealed draw and reports whether the stored
// winning numbers are exactly reproducible from the seeds.
func VerifyDraw(serverSeed, serverSeedHash, clientSeed string, nonce int64, winning []int32, max int) error {
	if err := VerifyCommitment(serverSeed, serverSeedHash); err != nil {
		return err
	}

	recomputed, err := GenerateNumbers(serverSeed, clientSeed, nonce, len(winning), max)
	if err != nil {
		return err
	}
	for i := range winning {
		if recomputed[i] != winning[i] {
			return domain.ErrIntegrity("winning numbers do not reproduce from seeds")
		}
	}
	return nil
}
