package simulation

import (
	"io"
	"log"
	"math/rand"
	"strings"

	"github.com/voodooEntity/neuroplex"
	"github.com/voodooEntity/neuroplex/src/system/archivist"
)

// - - - - - - - - - - - - - - - - - - - - - - -
// SETUP FRESH SIMULATION INSTANCE
// - needs to be run for each test case
// - every instance gets its own ident and with
//   that its own gits registry, so cases never
//   share state

const charset = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func setupFreshSimulation(stepLimit int) *neuroplex.Neuroplex {
	return neuroplex.New(neuroplex.Settings{
		Ident:     "test-" + GenerateRandomString(10),
		LogLevel:  archivist.LEVEL_ERROR,
		Logger:    log.New(io.Discard, "", 0),
		StepLimit: stepLimit,
	})
}

func GenerateRandomString(length int) string {
	// Create a strings.Builder to efficiently build the string
	var sb strings.Builder
	sb.Grow(length)

	// Loop 'length' times, selecting a random character from the charset
	for i := 0; i < length; i++ {
		// rand.Intn(n) returns a random int in the range [0, n)
		randomIndex := rand.Intn(len(charset))
		randomChar := charset[randomIndex]

		// Write the byte to the Builder
		sb.WriteByte(randomChar)
	}

	return sb.String()
}
