package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

// createTestLogger creates a logger for testing
func createTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}

// createTestKVMap returns a standard test KV map
func createTestKVMap() map[string]string {
	return map[string]string{
		"GUVI_EMAIL":    "qa@example.com",
		"GUVI_PASSWORD": "s3cret",
		"GUVI_HOST":     "staging.guvi.in",
		"RESULTS_ROOT":  "/tmp/results",
	}
}

func TestReplaceKeyReferences_Simple(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"GUVI_PASSWORD": "s3cret"}

	input := "password = {GUVI_PASSWORD}"
	expected := "password = s3cret"

	result := ReplaceKeyReferences(input, kvMap, logger)
	assert.Equal(t, expected, result)
}

func TestReplaceKeyReferences_Multiple(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{
		"key1": "val1",
		"key2": "val2",
		"key3": "val3",
	}

	input := "key1={key1}, key2={key2}, key3={key3}"
	expected := "key1=val1, key2=val2, key3=val3"

	result := ReplaceKeyReferences(input, kvMap, logger)
	assert.Equal(t, expected, result)
}

func TestReplaceKeyReferences_MissingKey(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"other-key": "value"}

	input := "password = {missing-key}"
	expected := "password = {missing-key}" // Unchanged

	result := ReplaceKeyReferences(input, kvMap, logger)
	assert.Equal(t, expected, result)
}

func TestReplaceKeyReferences_InvalidSyntax(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"invalid key": "value"}

	// Space in key name - doesn't match regex
	input := "password = {invalid key}"
	expected := "password = {invalid key}" // Unchanged

	result := ReplaceKeyReferences(input, kvMap, logger)
	assert.Equal(t, expected, result)
}

func TestReplaceKeyReferences_Empty(t *testing.T) {
	assert.Equal(t, "", ReplaceKeyReferences("", createTestKVMap(), createTestLogger()))
}

func TestReplaceKeyReferences_EmbeddedInURL(t *testing.T) {
	result := ReplaceKeyReferences("https://{GUVI_HOST}/sign-in/", createTestKVMap(), createTestLogger())
	assert.Equal(t, "https://staging.guvi.in/sign-in/", result)
}

func TestReplaceInStruct_NestedConfig(t *testing.T) {
	config := NewDefaultConfig()
	config.Site.SignInURL = "https://{GUVI_HOST}/sign-in/"
	config.Credentials.ValidEmail = "{GUVI_EMAIL}"
	config.Credentials.ValidPassword = "{GUVI_PASSWORD}"
	config.Output.ResultsDir = "{RESULTS_ROOT}/guvi"
	config.Logging.Output = []string{"stdout", "{UNKNOWN}"}

	err := ReplaceInStruct(config, createTestKVMap(), createTestLogger())
	require.NoError(t, err)

	assert.Equal(t, "https://staging.guvi.in/sign-in/", config.Site.SignInURL)
	assert.Equal(t, "qa@example.com", config.Credentials.ValidEmail)
	assert.Equal(t, "s3cret", config.Credentials.ValidPassword)
	assert.Equal(t, "/tmp/results/guvi", config.Output.ResultsDir)
	assert.Equal(t, []string{"stdout", "{UNKNOWN}"}, config.Logging.Output)

	// Untouched fields keep their defaults
	assert.Equal(t, "https://www.guvi.in/", config.Site.HomeURL)
	assert.Equal(t, NewDefaultConfig().Wait, config.Wait)
}

func TestReplaceInStruct_RejectsNonPointer(t *testing.T) {
	err := ReplaceInStruct(*NewDefaultConfig(), createTestKVMap(), createTestLogger())
	assert.Error(t, err)
}

func TestReplaceInStruct_RejectsNonStruct(t *testing.T) {
	s := "{GUVI_EMAIL}"
	err := ReplaceInStruct(&s, createTestKVMap(), createTestLogger())
	assert.Error(t, err)
	assert.Equal(t, "{GUVI_EMAIL}", s)
}

func TestEnvMap(t *testing.T) {
	t.Setenv("GUVITEST_REPLACEMENT_PROBE", "a=b")
	env := EnvMap()
	assert.Equal(t, "a=b", env["GUVITEST_REPLACEMENT_PROBE"])
}
