package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagesOrderIsFixed(t *testing.T) {
	tx := Default()
	assert.Equal(t, []Stage{Application, Interview, Offer, Rejection}, tx.Stages())
	assert.NotContains(t, tx.Stages(), Other)
	assert.Empty(t, tx.StagePhrases(Other))
}

func TestDefaultPhrasesAreLowercase(t *testing.T) {
	tx := Default()
	for _, p := range tx.RelevancePhrases() {
		assert.Equal(t, normalize(p), p)
	}
	for _, st := range tx.Stages() {
		phrases := tx.StagePhrases(st)
		require.NotEmpty(t, phrases, st)
		for _, p := range phrases {
			assert.Equal(t, normalize(p), p)
		}
	}
	assert.Equal(t, "application received", tx.StagePhrases(Application)[0])
}

func TestPhrasesAreCopies(t *testing.T) {
	tx := Default()
	p := tx.StagePhrases(Interview)
	p[0] = "mutated"
	assert.Equal(t, "interview", tx.StagePhrases(Interview)[0])
}

func TestNew(t *testing.T) {
	tx, err := New(
		[]string{" Job ", "job", "", "CAREER"},
		map[Stage][]string{"Offer": {"Offer Letter", "  "}, Other: nil},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"job", "career"}, tx.RelevancePhrases())
	assert.Equal(t, []string{"offer letter"}, tx.StagePhrases(Offer))
	assert.Empty(t, tx.StagePhrases(Application))

	_, err = New(nil, map[Stage][]string{"promotion": {"x"}})
	assert.Error(t, err)

	_, err = New(nil, map[Stage][]string{Other: {"x"}})
	assert.Error(t, err)

	_, err = New(nil, map[Stage][]string{"offer": {"a"}, "Offer": {"b"}})
	assert.Error(t, err)
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in      string
		want    Stage
		wantErr bool
	}{
		{"application", Application, false},
		{"Interview", Interview, false},
		{" OFFER ", Offer, false},
		{"rejection", Rejection, false},
		{"Other", Other, false},
		{"all", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, err := ParseStage(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidStage, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	doc := `
relevance: [Job, hiring]
stages:
  rejection: [regret]
  application: [Applied, thanks for applying]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	tx, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"job", "hiring"}, tx.RelevancePhrases())
	assert.Equal(t, []string{"applied", "thanks for applying"}, tx.StagePhrases(Application))
	assert.Equal(t, []string{"regret"}, tx.StagePhrases(Rejection))
	assert.Empty(t, tx.StagePhrases(Interview))
	assert.Equal(t, []Stage{Application, Interview, Offer, Rejection}, tx.Stages())
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	bad := []string{
		"stages:\n  application: [x]\n",
		"relevance: [job]\nstages:\n  promotion: [x]\n",
		"relevance: [job]\nstages:\n  other: [x]\n",
		"relevance: [job]\nextra: true\n",
	}
	for _, doc := range bad {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	tx, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().RelevancePhrases(), tx.RelevancePhrases())
}
