package commitment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCommitmentsEmpty(t *testing.T) {
	assert.Nil(t, DetectCommitments(""))
}

func TestDetectCommitmentsFinancialAndGuarantee(t *testing.T) {
	text := "I guarantee we will deliver by Friday. We will pay you $10,000."
	commitments := DetectCommitments(text)

	var kinds []string
	for _, c := range commitments {
		kinds = append(kinds, c.Type)
	}
	assert.Contains(t, kinds, "guarantee")
	assert.Contains(t, kinds, "deadline")
	assert.Contains(t, kinds, "financial")
}

func TestHasCommitmentsFalse(t *testing.T) {
	assert.False(t, HasCommitments("Just checking in, no news yet."))
}

func TestDetectCommitmentsIgnoresNegation(t *testing.T) {
	// Documented limitation: negation is not modeled.
	assert.True(t, HasCommitments("we will not pay $5000 under any circumstance"))
}

func TestDetectCommitmentsResourceAndContract(t *testing.T) {
	commitments := DetectCommitments("We will sign the contract and allocate 3 developers.")
	var kinds []string
	for _, c := range commitments {
		kinds = append(kinds, c.Type)
	}
	assert.Contains(t, kinds, "contract")
	assert.Contains(t, kinds, "resource")
}
