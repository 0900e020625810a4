package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectProvider(t *testing.T) {
	clearKeys := func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "")
		t.Setenv("GEMINI_API_KEY", "")
	}

	t.Run("anthropic wins over openai", func(t *testing.T) {
		clearKeys(t)
		t.Setenv("ANTHROPIC_API_KEY", "ant-key")
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg, err := DetectProvider()
		require.NoError(t, err)
		assert.Equal(t, ProviderAnthropic, cfg.Provider)
		assert.Equal(t, "ant-key", cfg.APIKey)
	})

	t.Run("gemini used when alone", func(t *testing.T) {
		clearKeys(t)
		t.Setenv("GEMINI_API_KEY", "gem-key")

		cfg, err := DetectProvider()
		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, cfg.Provider)
	})

	t.Run("no keys is an error", func(t *testing.T) {
		clearKeys(t)
		_, err := DetectProvider()
		require.Error(t, err)
	})
}

func TestNewClientFromConfig(t *testing.T) {
	cases := []struct {
		provider Provider
		wantType any
	}{
		{ProviderAnthropic, &AnthropicClient{}},
		{ProviderOpenAI, &OpenAIClient{}},
		{ProviderGemini, &GeminiClient{}},
	}
	for _, tc := range cases {
		t.Run(string(tc.provider), func(t *testing.T) {
			client, err := NewClientFromConfig(ClientConfig{Provider: tc.provider, APIKey: "test-key"})
			require.NoError(t, err)
			assert.IsType(t, tc.wantType, client)
		})
	}

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewClientFromConfig(ClientConfig{Provider: "mystery", APIKey: "k"})
		require.Error(t, err)
	})
}

func TestFactory_Caching(t *testing.T) {
	factory := NewFactory()

	cfg := ClientConfig{Provider: ProviderAnthropic, APIKey: "k", Model: "model-a", Temperature: 0.1, MaxTokens: 1024}
	first, err := factory.Client(cfg)
	require.NoError(t, err)
	second, err := factory.Client(cfg)
	require.NoError(t, err)

	assert.Same(t, first, second, "identical configuration tuples share one client")
	assert.Equal(t, 1, factory.Size())

	t.Run("different model is a different client", func(t *testing.T) {
		other := cfg
		other.Model = "model-b"
		third, err := factory.Client(other)
		require.NoError(t, err)
		assert.NotSame(t, first, third)
		assert.Equal(t, 2, factory.Size())
	})

	t.Run("different temperature is a different client", func(t *testing.T) {
		other := cfg
		other.Temperature = 0.9
		fourth, err := factory.Client(other)
		require.NoError(t, err)
		assert.NotSame(t, first, fourth)
	})

	t.Run("clear empties the cache", func(t *testing.T) {
		factory.Clear()
		assert.Equal(t, 0, factory.Size())

		again, err := factory.Client(cfg)
		require.NoError(t, err)
		assert.NotSame(t, first, again)
	})
}
