package generator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	"github.com/loomgen/loom/internal/prng"
)

// FakerAdapter is the trait boundary spec.md §1 describes: the engine
// never hard-codes a lexical corpus, it asks an adapter for one named
// generator. The default adapter wraps jaswdr/faker, generalizing
// internal/generator/advanced.go's GenerateBySemanticType switch into a
// name-keyed registry.
type FakerAdapter interface {
	Generate(p *prng.Source, name, locale string, args map[string]string) (string, error)
}

// DefaultFakerAdapter dispatches by generator name to a jaswdr/faker call,
// reseeding a fresh faker.Faker from the current PRNG state on every draw
// so the adapter stays deterministic in the PRNG stream (spec.md §4.1),
// then advances the parent stream once to keep both in lockstep.
type DefaultFakerAdapter struct{}

func (DefaultFakerAdapter) Generate(p *prng.Source, name, locale string, args map[string]string) (string, error) {
	f := faker.NewWithSeed(newRandSource(p.Seed() ^ p.Rand().Int63()))
	p.Advance()

	switch name {
	case "first_name":
		return f.Person().FirstName(), nil
	case "last_name":
		return f.Person().LastName(), nil
	case "name", "full_name":
		return f.Person().Name(), nil
	case "email", "safe_email":
		return f.Internet().Email(), nil
	case "phone_number":
		return f.Phone().Number(), nil
	case "street_address":
		return f.Address().StreetAddress(), nil
	case "city":
		return f.Address().City(), nil
	case "state":
		return f.Address().State(), nil
	case "country":
		return f.Address().Country(), nil
	case "postcode", "zip_code":
		return f.Address().PostCode(), nil
	case "url":
		return f.Internet().URL(), nil
	case "domain_name":
		return f.Internet().Domain(), nil
	case "username":
		return f.Internet().User(), nil
	case "password":
		return f.Internet().Password(), nil
	case "ipv4":
		return f.Internet().Ipv4(), nil
	case "ipv6":
		return f.Internet().Ipv6(), nil
	case "word":
		return f.Lorem().Word(), nil
	case "sentence":
		n := argInt(args, "words", 6)
		return f.Lorem().Sentence(n), nil
	case "paragraph":
		n := argInt(args, "sentences", 3)
		return f.Lorem().Paragraph(n), nil
	case "company":
		return f.Company().Name(), nil
	case "color_hex":
		return f.Color().Hex(), nil
	case "credit_card_number":
		return f.Payment().CreditCardNumber(), nil
	case "uuid":
		return f.UUID().V4(), nil
	default:
		return "", fmt.Errorf("faker: unknown generator %q", name)
	}
}

func argInt(args map[string]string, key string, def int) int {
	if args == nil {
		return def
	}
	v, ok := args[key]
	if !ok {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n <= 0 {
		return def
	}
	return n
}

// newRandSource adapts our 64-bit seed to the rand.Source jaswdr/faker's
// NewWithSeed constructor expects.
func newRandSource(seed int64) *seededSource {
	return &seededSource{seed: seed, state: uint64(seed)}
}

// seededSource is a tiny splitmix64-based rand.Source so the faker adapter
// doesn't need to import math/rand just to build a seed wrapper.
type seededSource struct {
	seed  int64
	state uint64
}

func (s *seededSource) Int63() int64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return int64(z >> 1)
}

func (s *seededSource) Seed(seed int64) {
	s.seed = seed
	s.state = uint64(seed)
}

// uuidV4 generates a UUID v4 string for the string.uuid node variant,
// drawing its 16 bytes from p so it is reproducible for a fixed seed —
// uuid.NewString() draws from crypto/rand and would break spec.md §3's
// determinism invariant.
func uuidV4(p *prng.Source) string {
	var b [16]byte
	_, _ = p.Rand().Read(b[:])
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return uuid.UUID(b).String()
}
