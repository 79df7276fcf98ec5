package watch

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Error variables for seed file errors
var (
	// ErrSeedNotFound is returned when the seed file does not exist
	ErrSeedNotFound = errors.New("seed file not found")
	// ErrSeedEmptyName is returned when a seed entry has an empty name
	ErrSeedEmptyName = errors.New("seed entry has empty crate name")
)

// SeedEntry is a single crate listed in the seed file.
type SeedEntry struct {
	// Name is the crate name to watch at startup
	Name string `toml:"name"`
}

// SeedFile is the TOML structure of an optional startup watch list.
// Each listed crate is resolved against the registry and inserted
// into the watch list before the bot starts serving commands.
//
// Example:
//
//	[[crates]]
//	name = "serde"
//
//	[[crates]]
//	name = "tokio"
type SeedFile struct {
	Crates []SeedEntry `toml:"crates"`
}

// LoadSeed reads and validates a seed file from path.
func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSeedNotFound, path)
		}
		return nil, err
	}

	var seed SeedFile
	if err := toml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i, entry := range seed.Crates {
		if entry.Name == "" {
			return nil, fmt.Errorf("%w: entry %d", ErrSeedEmptyName, i+1)
		}
	}

	return &seed, nil
}

// Names returns the crate names in file order.
func (s *SeedFile) Names() []string {
	names := make([]string, 0, len(s.Crates))
	for _, entry := range s.Crates {
		names = append(names, entry.Name)
	}
	return names
}
