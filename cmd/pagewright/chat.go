package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/wrightlabs/pagewright/pkg/abilities"
	"github.com/wrightlabs/pagewright/pkg/abilities/catalog"
	"github.com/wrightlabs/pagewright/pkg/agent"
	"github.com/wrightlabs/pagewright/pkg/events"
)

func newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Run one agent turn against the local ability catalogue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey := viper.GetString("openai-api-key")
			if apiKey == "" {
				return errors.New("openai-api-key is required (flag, config, or PAGEWRIGHT_OPENAI_API_KEY)")
			}

			store, closeStore, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			registry, err := buildRegistry(store)
			if err != nil {
				return err
			}

			var clientOpts []agent.OpenAIOption
			if model := viper.GetString("model"); model != "" {
				clientOpts = append(clientOpts, agent.WithModel(model))
			}
			chatClient := agent.NewOpenAIClientFromConfig(apiKey, viper.GetString("openai-base-url"), clientOpts...)

			loop, err := agent.NewLoop(registry,
				agent.WithChatClient(chatClient),
				agent.WithSessionStore(store),
			)
			if err != nil {
				return err
			}

			sessionID := viper.GetString("session-id")
			if sessionID == "" {
				sessionID = uuid.New().String()
			}

			ctx := abilities.WithPrincipal(cmd.Context(), abilities.Principal{
				ID:           "cli",
				Capabilities: []string{catalog.CapabilityRead, catalog.CapabilityEdit},
			})
			ctx = events.WithEventSinks(ctx, logSink{})

			conv := agent.NewConversation(sessionID)
			result, err := loop.Run(ctx, conv, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Println(result.Reply)
			if result.Summary != "" {
				fmt.Println()
				fmt.Println(result.Summary)
			}

			if out := viper.GetString("transcript"); out != "" {
				raw, err := yaml.Marshal(conv)
				if err != nil {
					return errors.Wrap(err, "marshal transcript")
				}
				if err := os.WriteFile(out, raw, 0644); err != nil {
					return errors.Wrap(err, "write transcript")
				}
			}
			return nil
		},
	}
	cmd.Flags().String("session-id", "", "Session id to continue (default: a fresh session)")
	cmd.Flags().String("transcript", "", "Write the conversation transcript to this YAML file")
	_ = viper.BindPFlag("session-id", cmd.Flags().Lookup("session-id"))
	_ = viper.BindPFlag("transcript", cmd.Flags().Lookup("transcript"))
	return cmd
}

// logSink writes events straight to the structured log, for CLI runs where
// no router is up.
type logSink struct{}

func (logSink) PublishEvent(event events.Event) error {
	raw, err := events.MarshalEvent(event)
	if err != nil {
		return err
	}
	log.Debug().Str("event_type", string(event.Type())).RawJSON("event", raw).Msg("event")
	return nil
}
