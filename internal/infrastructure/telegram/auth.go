package telegram

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
)

// CodeProvider defines interface for providing authentication codes
type CodeProvider interface {
	GetCode(ctx context.Context) (string, error)
}

// PasswordProvider defines interface for providing 2FA passwords
type PasswordProvider interface {
	GetPassword(ctx context.Context) (string, error)
}

// ConsoleCodeProvider implements CodeProvider using stdin
type ConsoleCodeProvider struct{}

// GetCode prompts user for authentication code via console with timeout
func (p *ConsoleCodeProvider) GetCode(ctx context.Context) (string, error) {
	return promptLine(ctx, "Enter authentication code: ")
}

// ConsolePasswordProvider implements PasswordProvider using stdin
type ConsolePasswordProvider struct{}

// GetPassword prompts user for 2FA password via console with timeout
func (p *ConsolePasswordProvider) GetPassword(ctx context.Context) (string, error) {
	return promptLine(ctx, "Enter 2FA password: ")
}

func promptLine(ctx context.Context, prompt string) (string, error) {
	fmt.Print(prompt)

	lineChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			errChan <- fmt.Errorf("failed to read input: %w", err)
			return
		}
		lineChan <- strings.TrimSpace(line)
	}()

	select {
	case line := <-lineChan:
		return line, nil
	case err := <-errChan:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("input cancelled: %w", ctx.Err())
	case <-time.After(2 * time.Minute):
		return "", fmt.Errorf("input timeout")
	}
}

// Login runs the interactive authentication flow and persists the
// session to the storage the service reads at startup. Meant for the
// tg-login tool, not the long-running service.
func (c *MTProtoClient) Login(ctx context.Context) error {
	client := telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		SessionStorage: c.sessionStorage,
	})

	codeProvider := &ConsoleCodeProvider{}
	passwordProvider := &ConsolePasswordProvider{}

	return client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to check auth status: %w", err)
		}
		if status.Authorized {
			c.logger.Info().Msg("session already authorized")
			return nil
		}

		flow := auth.NewFlow(
			auth.Constant(
				c.phoneNumber,
				"",
				auth.CodeAuthenticatorFunc(func(ctx context.Context, sentCode *tg.AuthSentCode) (string, error) {
					c.logger.Info().Msg("authentication code has been sent")
					return codeProvider.GetCode(ctx)
				}),
			),
			auth.SendCodeOptions{},
		)

		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			if tgerr.Is(err, "SESSION_PASSWORD_NEEDED") {
				c.logger.Info().Msg("2FA is enabled, requesting password")
				password, err := passwordProvider.GetPassword(ctx)
				if err != nil {
					return fmt.Errorf("failed to get 2FA password: %w", err)
				}
				if _, err := client.Auth().Password(ctx, password); err != nil {
					return fmt.Errorf("2FA authentication failed: %w", err)
				}
				c.logger.Info().Msg("2FA authentication successful")
				return nil
			}
			return err
		}

		c.logger.Info().Msg("authentication successful")
		return nil
	})
}
