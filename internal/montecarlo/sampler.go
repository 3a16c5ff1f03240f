package montecarlo

import (
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/funvibe/funsor/internal/domain"
)

// defaultSampler draws uniformly over bounded domains and from a standard
// normal over the real line. All randomness is derived from the sample
// key, so identical keys yield identical values.
type defaultSampler struct{}

func (defaultSampler) Sample(name string, d domain.Domain, key uuid.UUID) (float64, error) {
	rng := rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(key[:8]))))
	if d.Bounded {
		if d.Size == 0 {
			return 0, fmt.Errorf("empty domain %s", d)
		}
		return float64(rng.Intn(d.Size)), nil
	}
	return rng.NormFloat64(), nil
}
