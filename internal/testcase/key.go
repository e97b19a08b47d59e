package testcase

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	InputExt  = ".in"
	OutputExt = ".out"
)

// Key identifies a single test case: the group (generator file name as
// written in problem.toml) and the 0-based index inside that group.
type Key struct {
	Group string
	Index int
}

// Seed returns the 31-bit generator seed for the key.
func (k Key) Seed() uint32 {
	return DeriveSeed(k.Group, k.Index)
}

// Stem is the file name stem shared by the input and the answer files,
// e.g. "01_random_03" for group "01_random.cpp" and index 3.
func (k Key) Stem() string {
	group := strings.TrimSuffix(k.Group, filepath.Ext(k.Group))
	return fmt.Sprintf("%s_%02d", group, k.Index)
}

func (k Key) InputName() string {
	return k.Stem() + InputExt
}

func (k Key) OutputName() string {
	return k.Stem() + OutputExt
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%d", k.Group, k.Index)
}

// DeriveSeed hashes group followed by the decimal index with sha256 and
// folds the digest into 32 bits by XOR-ing its big-endian 4-byte words.
// The top bit is cleared so the seed fits a signed 32-bit integer.
func DeriveSeed(group string, index int) uint32 {
	sum := sha256.Sum256([]byte(group + strconv.Itoa(index)))
	var seed uint32
	for i := 0; i < len(sum); i += 4 {
		seed ^= binary.BigEndian.Uint32(sum[i : i+4])
	}
	return seed & 0x7fffffff
}
