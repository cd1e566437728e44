package memory

import (
	"testing"

	"github.com/puppetwire/marionette/pkg/transcript/tests"
)

func TestStoreContract(t *testing.T) {
	tests.StoreContractTest(t, NewStore())
}
