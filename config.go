package bitrepair

import (
	"encoding/json"
	"os"
)

// Config bundles the per-run parameters that would otherwise be installed
// as process-global state: the checksum method name, the redundancy
// factor, and the two brute-force budgets. It is threaded explicitly
// through every engine call instead of being read from a package-level
// variable (spec §9).
type Config struct {
	// Method is the checksum method name: md4, md5, sha256, crc32,
	// md5_16, md5_32, or md5_64.
	Method string `json:"method"`
	// Redundancy is R: block bytes per checksum byte (B = K/8 * R).
	Redundancy int `json:"redundancy"`
	// BruteForceRepair is the operation cap for the repair engine.
	BruteForceRepair uint64 `json:"bruteforce_repair"`
	// BruteForceRestore is the operation cap for the restore engine.
	BruteForceRestore uint64 `json:"bruteforce_restore"`
	// ChecksumPenalty is P in the distance formula (default 1).
	ChecksumPenalty uint64 `json:"checksum_penalty"`
	// MaxThreadCount bounds per-block goroutine parallelism in
	// repair/restore (0 leaves the CLI's default of 4 in place).
	MaxThreadCount int `json:"max_thread_count"`
}

// LoadConfig reads a JSON file and decodes it into a Config.
func LoadConfig(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	if c.ChecksumPenalty == 0 {
		c.ChecksumPenalty = 1
	}
	return c, nil
}
