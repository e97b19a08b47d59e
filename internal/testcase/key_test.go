package testcase_test

import (
	"testing"

	"github.com/programme-lv/cpmaker/internal/testcase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSeedKnownValues(t *testing.T) {
	cases := []struct {
		group string
		index int
		want  uint32
	}{
		{"01_random.cpp", 0, 34644694},
		{"01_random.cpp", 1, 1188470281},
		{"sample.txt", 3, 613854059},
		{"", 0, 1264075541},
	}
	for _, c := range cases {
		got := testcase.DeriveSeed(c.group, c.index)
		assert.Equal(t, c.want, got, "group=%q index=%d", c.group, c.index)
	}
}

func TestDeriveSeedFitsIn31Bits(t *testing.T) {
	for i := 0; i < 500; i++ {
		seed := testcase.DeriveSeed("02_big.py", i)
		require.Less(t, seed, uint32(1)<<31)
		require.Equal(t, seed, testcase.DeriveSeed("02_big.py", i))
	}
}

func TestKeyFileNames(t *testing.T) {
	k := testcase.Key{Group: "01_random.cpp", Index: 3}
	assert.Equal(t, "01_random_03", k.Stem())
	assert.Equal(t, "01_random_03.in", k.InputName())
	assert.Equal(t, "01_random_03.out", k.OutputName())
	assert.Equal(t, testcase.DeriveSeed("01_random.cpp", 3), k.Seed())

	k = testcase.Key{Group: "sample", Index: 12}
	assert.Equal(t, "sample_12.in", k.InputName())
}
