package ioc

import (
	"context"
	"log/slog"

	"github.com/KNICEX/spot-trader/internal/service/llm"
	"github.com/KNICEX/spot-trader/internal/service/llm/gemini"
	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/viper"
	"google.golang.org/api/option"
)

type geminiConfig struct {
	ApiKey []string `mapstructure:"api_key"`
	Model  string   `mapstructure:"model"`
}

func InitGeminiCli(cfg geminiConfig) *genai.Client {
	if len(cfg.ApiKey) == 0 {
		panic("no gemini api key set")
	}
	cli, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.ApiKey[0]))
	if err != nil {
		panic(err)
	}
	return cli
}

// InitLLM 未配置 api key 时返回 nil, AI 建议功能关闭
func InitLLM() llm.Service {
	var cfg geminiConfig
	if err := viper.UnmarshalKey("llm.gemini", &cfg); err != nil {
		panic(err)
	}
	cfg.ApiKey = viper.GetStringSlice("llm.gemini.api_key")
	if len(cfg.ApiKey) == 0 || cfg.ApiKey[0] == "" {
		slog.Warn("gemini api key not set, ai advisor disabled")
		return nil
	}
	return gemini.NewService(InitGeminiCli(cfg), gemini.WithModel(cfg.Model), gemini.WithJSONResponse())
}
