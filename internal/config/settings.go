package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/justestif/go-spotify-submission-bot/internal/db"
)

// ErrMissingSetting is returned when a required setting is absent.
var ErrMissingSetting = errors.New("missing setting")

// Setting keys in the config table.
const (
	KeyBotToken         = "TOKEN"
	KeyTargetChannel    = "TARGET_CHANNEL_ID"
	KeyHelpChannel      = "HELP_CHANNEL_ID"
	KeyCommandsChannel  = "COMMANDS_CHANNEL_ID"
	KeyAdmin            = "ADMIN"
	KeyTokenName        = "TOKEN_NAME"
	KeyCurators         = "CURATORS"
	KeyClientID         = "APP_CLIENT_ID"
	KeyClientSecret     = "CLIENT_SECRET"
	KeyRedirectURI      = "URI_STRING"
	KeyPlaylist         = "PLAYLIST_ID"
	KeyApprovedPlaylist = "APPROVED_PLAYLIST_ID"
	KeySubmittedRole    = "SUBMITTED_ROLE_ID"
	keyTokenLevelPrefix = "TOKEN_LEVEL_"
)

// Getter reads a single setting. It returns db.ErrNotFound when the key is
// absent.
type Getter interface {
	Get(ctx context.Context, key string) (string, error)
}

// Curator is a member allowed to run review and override submissions.
type Curator struct {
	Name string `json:"name"`
	ID   string `json:"id" validate:"required"`
}

// Settings are the community settings.
type Settings struct {
	BotToken          string    `validate:"required"`
	SubmissionChannel string    `validate:"required"`
	HelpChannel       string    `validate:"required"`
	CommandsChannel   string    `validate:"required"`
	AdminID           string    `validate:"required"`
	TokenName         string
	Curators          []Curator `validate:"dive"`
	ClientID          string    `validate:"required"`
	ClientSecret      string    `validate:"required"`
	RedirectURI       string    `validate:"required,url"`
	PendingPlaylist   string    `validate:"required"`
	ApprovedPlaylist  string    `validate:"required"`
	SubmittedRoleID   string
	TokenLevels       []string  // ascending
}

// CuratorIDs returns the curator user IDs.
func (s *Settings) CuratorIDs() []string {
	ids := make([]string, 0, len(s.Curators))
	for _, c := range s.Curators {
		ids = append(ids, c.ID)
	}
	return ids
}

// LoadSettings reads and validates the community settings.
func LoadSettings(ctx context.Context, store Getter) (*Settings, error) {
	r := reader{ctx: ctx, store: store}

	s := &Settings{
		BotToken:          r.get(KeyBotToken),
		SubmissionChannel: r.get(KeyTargetChannel),
		HelpChannel:       r.get(KeyHelpChannel),
		CommandsChannel:   r.get(KeyCommandsChannel),
		AdminID:           r.get(KeyAdmin),
		TokenName:         r.get(KeyTokenName),
		ClientID:          r.get(KeyClientID),
		ClientSecret:      r.get(KeyClientSecret),
		RedirectURI:       r.get(KeyRedirectURI),
		PendingPlaylist:   r.get(KeyPlaylist),
		ApprovedPlaylist:  r.get(KeyApprovedPlaylist),
		SubmittedRoleID:   r.get(KeySubmittedRole),
	}

	if raw := r.get(KeyCurators); raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.Curators); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", KeyCurators, err)
		}
	}

	for i := 1; ; i++ {
		level := r.get(keyTokenLevelPrefix + strconv.Itoa(i))
		if level == "" {
			break
		}
		s.TokenLevels = append(s.TokenLevels, level)
	}

	if r.err != nil {
		return nil, r.err
	}

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSetting, describe(verrs))
		}
		return nil, fmt.Errorf("validating settings: %w", err)
	}
	return s, nil
}

// reader collects the first store failure other than a missing key.
type reader struct {
	ctx   context.Context
	store Getter
	err   error
}

func (r *reader) get(key string) string {
	if r.err != nil {
		return ""
	}
	v, err := r.store.Get(r.ctx, key)
	if errors.Is(err, db.ErrNotFound) {
		return ""
	}
	if err != nil {
		r.err = fmt.Errorf("reading %s: %w", key, err)
		return ""
	}
	return v
}

var fieldKeys = map[string]string{
	"BotToken":          KeyBotToken,
	"SubmissionChannel": KeyTargetChannel,
	"HelpChannel":       KeyHelpChannel,
	"CommandsChannel":   KeyCommandsChannel,
	"AdminID":           KeyAdmin,
	"ClientID":          KeyClientID,
	"ClientSecret":      KeyClientSecret,
	"RedirectURI":       KeyRedirectURI,
	"PendingPlaylist":   KeyPlaylist,
	"ApprovedPlaylist":  KeyApprovedPlaylist,
}

func describe(verrs validator.ValidationErrors) string {
	keys := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key, ok := fieldKeys[fe.Field()]
		if !ok {
			key = fe.Namespace()
		}
		if fe.Tag() != "required" {
			key += " (" + fe.Tag() + ")"
		}
		keys = append(keys, key)
	}
	return strings.Join(keys, ", ")
}
