package pep440

import (
	"math/rand"
	"reflect"
	"testing/quick"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// Generators for testing/quick.  These live in the main package (not in a
// _test.go file) so that other packages' property tests can generate
// versions too.

func randBool(rand *rand.Rand) bool {
	return rand.Intn(2) == 1
}

func randSeg(rand *rand.Rand) int {
	return rand.Intn(3000)
}

func randN(rand *rand.Rand, size, max int) int {
	switch {
	case size < 1:
		size = 1
	case size > max:
		size = max
	}
	return 1 + rand.Intn(size)
}

const (
	randAlpha    = "abcdefghijklmnopqrstuvwxyz"
	randAlphaDig = randAlpha + "0123456789"
)

func randLocalStr(rand *rand.Rand, size int) string {
	buf := make([]byte, randN(rand, size, 10))
	for i := range buf {
		if i == 0 {
			buf[i] = randAlpha[rand.Intn(len(randAlpha))]
		} else {
			buf[i] = randAlphaDig[rand.Intn(len(randAlphaDig))]
		}
	}
	return string(buf)
}

func (ver PublicVersion) generate(rand *rand.Rand, size int) PublicVersion {
	if randBool(rand) {
		ver.Epoch = randSeg(rand)
	}
	ver.Release = make([]int, randN(rand, size, 10))
	for i := range ver.Release {
		ver.Release[i] = randSeg(rand)
	}
	if randBool(rand) {
		ver.Pre = &PreRelease{
			L: []string{"a", "b", "rc"}[rand.Intn(3)],
			N: randSeg(rand),
		}
	}
	if randBool(rand) {
		n := randSeg(rand)
		ver.Post = &n
	}
	if randBool(rand) {
		n := randSeg(rand)
		ver.Dev = &n
	}
	return ver
}

// Generate implements testing/quick.Generator.
func (ver PublicVersion) Generate(rand *rand.Rand, size int) reflect.Value {
	return reflect.ValueOf(ver.generate(rand, size))
}

func (ver LocalVersion) generate(rand *rand.Rand, size int) LocalVersion {
	if randBool(rand) {
		ver.Local = make([]intstr.IntOrString, randN(rand, size, 10))
		size -= len(ver.Local)
		for i := range ver.Local {
			if randBool(rand) {
				ver.Local[i] = intstr.FromInt(randSeg(rand))
			} else {
				str := randLocalStr(rand, size)
				size -= len(str)
				ver.Local[i] = intstr.FromString(str)
			}
		}
	}
	ver.PublicVersion = ver.PublicVersion.generate(rand, size)
	return ver
}

// Generate implements testing/quick.Generator.
func (ver LocalVersion) Generate(rand *rand.Rand, size int) reflect.Value {
	return reflect.ValueOf(ver.generate(rand, size))
}

//nolint:exhaustivestruct
var _ quick.Generator = LocalVersion{}

// Generate implements testing/quick.Generator.
func (op CmpOp) Generate(rand *rand.Rand, _ int) reflect.Value {
	return reflect.ValueOf(CmpOp(rand.Intn(int(cmpOpEnd))))
}
