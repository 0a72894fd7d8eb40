// Command chat is a terminal client for the talent assistant API.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/talent-assistant/agent/chat"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	"github.com/tanpawarit/talent-assistant/api"
	configx "github.com/tanpawarit/talent-assistant/pkg/config"
	_ "github.com/tanpawarit/talent-assistant/pkg/logger/autoload"
)

type ClientConfig struct {
	APIURL  string        `envconfig:"API_URL" default:"http://localhost:8080"`
	Token   string        `envconfig:"TOKEN"`
	Context string        `envconfig:"CONTEXT" default:"candidates"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"90s"`
}

const help = `comandos:
  /context <nome>   troca o agente (schools, companies, jobs, candidates, applications, contracts, payments, feedback)
  /agents           lista os agentes
  /suggest          perguntas sugeridas do agente atual
  /reset            inicia uma nova conversa
  /quit             sai`

func main() {
	cfg := configx.MustNew[ClientConfig]("CHAT")
	// Flags are parsed by the config loader; a positional argument picks the context.
	if arg := strings.TrimSpace(flag.Arg(0)); arg != "" {
		cfg.Context = arg
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *cfg, os.Stdin, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("chat client stopped")
	}
}

func run(ctx context.Context, cfg ClientConfig, in io.Reader, out io.Writer) error {
	agentCtx, err := contractx.ParseAgentContext(cfg.Context)
	if err != nil {
		return err
	}
	client, err := api.NewClient(cfg.APIURL, cfg.Token, cfg.Timeout)
	if err != nil {
		return err
	}
	session, err := chat.NewSession(client, agentCtx)
	if err != nil {
		return err
	}
	session.Open()
	defer session.Close()

	fmt.Fprintf(out, "Assistente (%s). Digite /help para ver os comandos.\n", agentCtx)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			resp, _ := session.Send(ctx, line)
			printReply(out, resp)
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(out, help)
		case "/reset":
			session.Reset()
			fmt.Fprintln(out, "Nova conversa iniciada.")
		case "/context":
			next, err := contractx.ParseAgentContext(arg)
			if err != nil {
				fmt.Fprintln(out, "Contexto desconhecido.")
				continue
			}
			if err := session.SwitchContext(next); err != nil {
				fmt.Fprintln(out, "Contexto desconhecido.")
				continue
			}
			fmt.Fprintf(out, "Agora falando com %s.\n", next)
		case "/agents":
			agents, err := client.Agents(ctx)
			if err != nil {
				fmt.Fprintln(out, contractx.FallbackMessage)
				continue
			}
			for _, a := range agents {
				fmt.Fprintf(out, "  %-13s %s\n", a.Context, a.Name)
			}
		case "/suggest":
			questions, err := client.SuggestedQuestions(ctx, session.Context())
			if err != nil {
				fmt.Fprintln(out, contractx.FallbackMessage)
				continue
			}
			for _, q := range questions {
				fmt.Fprintf(out, "  - %s\n", q)
			}
		default:
			fmt.Fprintln(out, help)
		}
	}
}

func printReply(out io.Writer, resp contractx.ChatResponse) {
	if resp.ToolCalled != nil {
		fmt.Fprintf(out, "[ferramenta: %s]\n", *resp.ToolCalled)
	}
	fmt.Fprintln(out, resp.Message)
}
