// Package telegram implements the channel-history feed over MTProto
// using the gotd/td library.
package telegram

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/0xpolarzero/nightwatch/config"
	"github.com/0xpolarzero/nightwatch/internal/domain"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/entities"
)

// MTProtoClient implements deps.TelegramFeed using gotd/td. The service
// requires an already-authorized session produced by the tg-login tool;
// it never prompts interactively.
type MTProtoClient struct {
	client *telegram.Client

	apiID   int
	apiHash string

	sessionStorage *FileSessionStorage
	phoneNumber    string

	// Connection state
	connected  bool
	mu         sync.RWMutex
	cancelFunc context.CancelFunc
	runDone    chan struct{}

	logger zerolog.Logger

	api *tg.Client

	rateLimiter *rate.Limiter

	// peers caches resolved channels by handle; access hashes stay
	// valid for the session lifetime
	peers   map[string]*tg.Channel
	peersMu sync.Mutex
}

// maskPhoneNumber masks phone number for logging (keeps first 2 and last 2 digits)
func maskPhoneNumber(phone string) string {
	if len(phone) < 4 {
		return "***"
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}

// NewMTProtoClient creates a new MTProto client instance
func NewMTProtoClient(cfg *config.TelegramConfig, logger zerolog.Logger) (*MTProtoClient, error) {
	if cfg.APIID == 0 {
		return nil, fmt.Errorf("APIID is required")
	}
	if cfg.APIHash == "" {
		return nil, fmt.Errorf("APIHash is required")
	}
	if cfg.PhoneNumber == "" {
		return nil, fmt.Errorf("PhoneNumber is required")
	}

	sessionStorage, err := NewFileSessionStorage(cfg.SessionDir, cfg.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to create session storage: %w", err)
	}

	maskedPhone := maskPhoneNumber(cfg.PhoneNumber)

	return &MTProtoClient{
		apiID:          cfg.APIID,
		apiHash:        cfg.APIHash,
		phoneNumber:    cfg.PhoneNumber,
		sessionStorage: sessionStorage,
		logger:         logger.With().Str("component", "mtproto_client").Str("phone", maskedPhone).Logger(),
		rateLimiter:    rate.NewLimiter(rate.Every(time.Second), 10),
		peers:          make(map[string]*tg.Channel),
	}, nil
}

// Connect connects to Telegram and verifies the stored session is
// authorized. The caller should provide a context with timeout to
// prevent indefinite hanging.
func (c *MTProtoClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		c.logger.Debug().Msg("already connected")
		return nil
	}
	// Keep the lock to prevent concurrent connection attempts
	defer c.mu.Unlock()

	c.logger.Info().Msg("connecting to Telegram")

	c.client = telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		SessionStorage: c.sessionStorage,
	})

	clientCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancelFunc = cancel

	readyChan := make(chan struct{})
	errChan := make(chan error, 1)
	c.runDone = make(chan struct{})

	go func() {
		defer close(c.runDone)
		err := c.client.Run(clientCtx, func(ctx context.Context) error {
			c.api = c.client.API()

			status, err := c.client.Auth().Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to check auth status: %w", err)
			}
			if !status.Authorized {
				return fmt.Errorf("%w: run tg-login to create a session", domain.ErrNotAuthorized)
			}

			c.connected = true
			c.logger.Info().Msg("session restored, connected to Telegram")
			close(readyChan)

			// Keep connection alive
			<-ctx.Done()
			return ctx.Err()
		})
		select {
		case errChan <- err:
		default:
		}
	}()

	select {
	case <-readyChan:
		return nil
	case err := <-errChan:
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// Disconnect disconnects from Telegram with graceful shutdown. Multiple
// calls are safe and return nil if already disconnected.
func (c *MTProtoClient) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		c.logger.Debug().Msg("already disconnected")
		return nil
	}
	cancelFunc := c.cancelFunc
	runDone := c.runDone
	c.mu.Unlock()

	c.logger.Info().Msg("disconnecting from Telegram")

	if cancelFunc != nil {
		cancelFunc()
		if runDone != nil {
			select {
			case <-runDone:
				c.logger.Debug().Msg("client stopped gracefully")
			case <-ctx.Done():
				c.logger.Warn().Msg("disconnect timeout reached while waiting for client shutdown")
			}
		}
	}

	c.mu.Lock()
	c.client = nil
	c.api = nil
	c.connected = false
	c.cancelFunc = nil
	c.runDone = nil
	c.mu.Unlock()

	c.logger.Info().Msg("disconnected from Telegram")
	return nil
}

// IsConnected checks if client is connected to Telegram
func (c *MTProtoClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *MTProtoClient) ready() (*tg.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected || c.api == nil {
		return nil, domain.ErrNotConnected
	}
	return c.api, nil
}

// resolveChannel resolves a channel handle, caching the result for the
// session lifetime
func (c *MTProtoClient) resolveChannel(ctx context.Context, handle string) (*tg.Channel, error) {
	handle = strings.TrimPrefix(handle, "@")

	c.peersMu.Lock()
	cached := c.peers[handle]
	c.peersMu.Unlock()
	if cached != nil {
		return cached, nil
	}

	api, err := c.ready()
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	resolved, err := api.ContactsResolveUsername(ctx, handle)
	if err != nil {
		c.logger.Error().Err(err).Str("handle", handle).Msg("failed to resolve channel")
		return nil, fmt.Errorf("%w: %s", domain.ErrChannelNotFound, handle)
	}

	for _, chat := range resolved.Chats {
		if channel, ok := chat.(*tg.Channel); ok {
			c.peersMu.Lock()
			c.peers[handle] = channel
			c.peersMu.Unlock()
			return channel, nil
		}
	}

	return nil, fmt.Errorf("%w: %s resolved to a non-channel peer", domain.ErrChannelNotFound, handle)
}

// ChannelInfo resolves a channel handle to its profile. Admin usernames
// require admin rights on the channel and stay empty otherwise.
func (c *MTProtoClient) ChannelInfo(ctx context.Context, handle string) (*entities.Channel, error) {
	channel, err := c.resolveChannel(ctx, handle)
	if err != nil {
		return nil, err
	}

	api, err := c.ready()
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	info := &entities.Channel{
		ID:              channel.ID,
		Title:           channel.Title,
		ChannelUsername: channel.Username,
	}

	full, err := api.ChannelsGetFullChannel(ctx, &tg.InputChannel{
		ChannelID:  channel.ID,
		AccessHash: channel.AccessHash,
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("handle", handle).Msg("failed to fetch full channel info")
		return info, nil
	}
	if channelFull, ok := full.FullChat.(*tg.ChannelFull); ok {
		info.About = channelFull.About
	}

	info.AdminUsernames = c.adminUsernames(ctx, api, channel)

	return info, nil
}

// adminUsernames lists the channel's admins. Telegram only exposes the
// participant list to admins, so failures are expected and non-fatal.
func (c *MTProtoClient) adminUsernames(ctx context.Context, api *tg.Client, channel *tg.Channel) []string {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil
	}

	result, err := api.ChannelsGetParticipants(ctx, &tg.ChannelsGetParticipantsRequest{
		Channel: &tg.InputChannel{
			ChannelID:  channel.ID,
			AccessHash: channel.AccessHash,
		},
		Filter: &tg.ChannelParticipantsAdmins{},
		Limit:  100,
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("channel", channel.Username).Msg("admin list not accessible")
		return nil
	}

	participants, ok := result.(*tg.ChannelsChannelParticipants)
	if !ok {
		return nil
	}

	var usernames []string
	for _, user := range participants.Users {
		if u, ok := user.(*tg.User); ok && u.Username != "" {
			usernames = append(usernames, u.Username)
		}
	}
	sort.Strings(usernames)
	return usernames
}

// HistoryPage returns up to limit messages with IDs strictly greater
// than offsetID, ordered oldest-first. Telegram serves history
// newest-first; the negative add-offset shifts the window to the
// messages just above the floor, mirroring reverse iteration.
func (c *MTProtoClient) HistoryPage(ctx context.Context, handle string, offsetID int64, limit int) ([]*tg.Message, error) {
	channel, err := c.resolveChannel(ctx, handle)
	if err != nil {
		return nil, err
	}

	api, err := c.ready()
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	result, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer: &tg.InputPeerChannel{
			ChannelID:  channel.ID,
			AccessHash: channel.AccessHash,
		},
		OffsetID:  int(offsetID),
		AddOffset: -limit,
		Limit:     limit,
		MinID:     int(offsetID),
	})
	if err != nil {
		c.logger.Error().Err(err).Str("handle", handle).Int64("offset_id", offsetID).Msg("failed to get history")
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	channelMessages, ok := result.(*tg.MessagesChannelMessages)
	if !ok {
		return nil, fmt.Errorf("unexpected history response %T", result)
	}

	var page []*tg.Message
	for _, msg := range channelMessages.Messages {
		message, ok := msg.(*tg.Message)
		if !ok {
			// service messages (joins, pins) are not content
			continue
		}
		if int64(message.ID) <= offsetID {
			continue
		}
		page = append(page, message)
	}

	// newest-first to oldest-first
	sort.Slice(page, func(i, j int) bool { return page[i].ID < page[j].ID })

	c.logger.Debug().
		Str("handle", handle).
		Int64("offset_id", offsetID).
		Int("messages", len(page)).
		Msg("fetched history page")

	return page, nil
}
