package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MCahalane/vercel-assistant-chat/internal"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat API server",
	Long: `Run the HTTP API that backs the survey chat widget.

Routes:
  POST /api/chat         Submit one conversation turn
  POST /api/transcript   Transcript lifecycle (start, append, finalize)
  POST /api/speech       Transcribe one uploaded audio object
  GET  /api/health       Liveness and store reachability

The assistant API key is read from OPENAI_API_KEY.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if cfg.AssistantAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is not set")
		}
		if cfg.AssistantID == "" {
			return fmt.Errorf("assistant_id is not configured (config file or ASSISTANT_ID)")
		}

		assistant := &internal.HTTPAssistant{
			BaseURL:     cfg.AssistantBaseURL,
			APIKey:      cfg.AssistantAPIKey,
			AssistantID: cfg.AssistantID,
		}

		var notifier internal.SummaryNotifier = internal.LogNotifier{}
		if cfg.SummaryWebhookURL != "" {
			notifier = &internal.WebhookNotifier{URL: cfg.SummaryWebhookURL}
		}

		transcripts := internal.NewTranscriptService(store)
		orch := internal.NewOrchestrator(assistant, transcripts, internal.NewDetector(cfg.SentinelPhrase), notifier)
		if cfg.GateInterval > 0 {
			orch.Gate.Interval = cfg.GateInterval
		}
		if cfg.GateBudget > 0 {
			orch.Gate.Budget = cfg.GateBudget
		}

		handler := &internal.Handler{
			Orchestrator: orch,
			Transcripts:  transcripts,
			Speech: &internal.WhisperClient{
				BaseURL: cfg.SpeechBaseURL,
				APIKey:  cfg.AssistantAPIKey,
				Model:   cfg.SpeechModel,
			},
			Store: store,
		}

		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		server := &http.Server{
			Addr:              addr,
			Handler:           internal.NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
		}

		internal.LogInfo("listening on %s (store: %s)", addr, cfg.StoreBackend)
		return server.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
