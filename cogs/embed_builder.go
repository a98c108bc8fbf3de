package cogs

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/go-playground/validator/v10"
	"github.com/lmittmann/tint"

	"harbor-go/utils"
)

// DraftField is one embed field in a builder draft
type DraftField struct {
	Name   string `validate:"required,max=256"`
	Value  string `validate:"required,max=1024"`
	Inline bool
}

// EmbedDraft is the embed being assembled in a builder session
type EmbedDraft struct {
	ChannelID   string
	Title       string       `validate:"max=256"`
	Description string       `validate:"max=4096"`
	Color       string       `validate:"omitempty,len=7,hexcolor"`
	Author      string       `validate:"max=256"`
	Footer      string       `validate:"max=2048"`
	URL         string       `validate:"omitempty,http_url"`
	ImageURL    string       `validate:"omitempty,http_url"`
	Thumbnail   string       `validate:"omitempty,http_url"`
	Fields      []DraftField `validate:"max=25,dive"`
}

var (
	draftValidator = validator.New()

	errEmptyDraft    = errors.New("embed has no content")
	errDraftTooLarge = errors.New("embed exceeds the total character limit")
)

// NormalizeColor accepts RRGGBB or #RRGGBB
func NormalizeColor(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	return strings.ToUpper(s)
}

// Length is the character count Discord applies the total embed limit to
func (d *EmbedDraft) Length() int {
	n := len([]rune(d.Title)) + len([]rune(d.Description)) + len([]rune(d.Author)) + len([]rune(d.Footer))
	for _, f := range d.Fields {
		n += len([]rune(f.Name)) + len([]rune(f.Value))
	}
	return n
}

// IsEmpty reports whether the draft has nothing Discord would render
func (d *EmbedDraft) IsEmpty() bool {
	return d.Title == "" && d.Description == "" && d.Author == "" && d.Footer == "" &&
		d.ImageURL == "" && d.Thumbnail == "" && len(d.Fields) == 0
}

// Validate checks URLs, colour and Discord's embed limits
func (d *EmbedDraft) Validate() error {
	if err := draftValidator.Struct(d); err != nil {
		return err
	}
	if d.Length() > utils.MaxEmbedTotal {
		return errDraftTooLarge
	}
	return nil
}

// Embed renders the draft
func (d *EmbedDraft) Embed() *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       d.Title,
		Description: d.Description,
		URL:         d.URL,
	}
	if d.Color != "" {
		if c, err := strconv.ParseInt(strings.TrimPrefix(d.Color, "#"), 16, 32); err == nil {
			embed.Color = int(c)
		}
	}
	if d.Author != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: d.Author}
	}
	if d.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: d.Footer}
	}
	if d.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: d.ImageURL}
	}
	if d.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: d.Thumbnail}
	}
	for _, f := range d.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return embed
}

// describeDraftError turns a validation failure into a user-facing message
func describeDraftError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "hexcolor", "len":
			return "Colour must be a hex value like `#5865F2`."
		case "http_url":
			return fmt.Sprintf("%s must be an http(s) URL.", fe.Field())
		case "max":
			if fe.Field() == "Fields" {
				return fmt.Sprintf("An embed can have at most %d fields.", utils.MaxEmbedFields)
			}
			return fmt.Sprintf("%s can be at most %s characters.", fe.Field(), fe.Param())
		case "required":
			return fmt.Sprintf("%s is required.", fe.Field())
		}
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
	switch {
	case errors.Is(err, errDraftTooLarge):
		return fmt.Sprintf("Embeds can contain at most %d characters in total.", utils.MaxEmbedTotal)
	case errors.Is(err, errEmptyDraft):
		return "Add a title, description, field or image before sending."
	}
	return utils.UserMessage(err)
}

// RegisterEmbedBuilderCommand config
func RegisterEmbedBuilderCommand() *discordgo.ApplicationCommand {
	perm := int64(discordgo.PermissionManageMessages)
	return &discordgo.ApplicationCommand{
		Name:                     "embed",
		Description:              "Build and send a custom embed",
		DefaultMemberPermissions: &perm,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "Where to send it (defaults to here)",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
			},
		},
	}
}

// HandleEmbedBuilderCommand handles /embed
func HandleEmbedBuilderCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	if err := utils.RequirePermission(i, discordgo.PermissionManageMessages); err != nil {
		return utils.RespondError(s, i, "You need the **Manage Messages** permission to use the embed builder.")
	}
	userID := utils.InteractionUserID(i)
	if existing, active := utils.Sessions.ForUser(utils.SessionBuilder, userID); active {
		utils.Sessions.End(existing.ID)
	}

	channelID := i.ChannelID
	if ch := utils.Options(i).Channel("channel"); ch != nil {
		channelID = ch.ID
	}

	draft := &EmbedDraft{ChannelID: channelID}
	session := &utils.Session{
		Kind:        utils.SessionBuilder,
		UserID:      userID,
		Interaction: i.Interaction,
		Data:        draft,
		Timeout:     utils.Active.BuilderTimeout,
	}
	session.OnExpire = func(sess *utils.Session) { expireBuilder(s, sess) }
	if err := utils.Sessions.Register(session); err != nil {
		return utils.ReplyErr(s, i, err)
	}

	return utils.SendInteractionResponse(s, i, builderPreview(draft), builderComponents(session.ID, draft), true)
}

func builderPreview(d *EmbedDraft) *discordgo.MessageEmbed {
	if d.IsEmpty() {
		return utils.CreateBrandedEmbed("🛠️ Embed Builder",
			fmt.Sprintf("Use the buttons below to build your embed. It will be sent to <#%s>.", d.ChannelID), utils.BotColor)
	}
	return d.Embed()
}

func builderComponents(sessionID string, d *EmbedDraft) []discordgo.MessageComponent {
	id := func(action string) string { return utils.BuildCustomID("builder", action, sessionID) }
	return []discordgo.MessageComponent{
		utils.CreateActionRow(
			utils.CreateButton(id("title"), "Title & Description", discordgo.PrimaryButton, false, &discordgo.ComponentEmoji{Name: "📝"}),
			utils.CreateButton(id("color"), "Color", discordgo.SecondaryButton, false, &discordgo.ComponentEmoji{Name: "🎨"}),
			utils.CreateButton(id("author"), "Author & Footer", discordgo.SecondaryButton, false, &discordgo.ComponentEmoji{Name: "👤"}),
			utils.CreateButton(id("images"), "Images", discordgo.SecondaryButton, false, &discordgo.ComponentEmoji{Name: "🖼️"}),
		),
		utils.CreateActionRow(
			utils.CreateButton(id("field"), "Add Field", discordgo.SecondaryButton, len(d.Fields) >= utils.MaxEmbedFields, &discordgo.ComponentEmoji{Name: "➕"}),
			utils.CreateButton(id("clear"), "Clear Fields", discordgo.SecondaryButton, len(d.Fields) == 0, &discordgo.ComponentEmoji{Name: "🧹"}),
			utils.CreateButton(id("send"), "Send", discordgo.SuccessButton, d.IsEmpty(), &discordgo.ComponentEmoji{Name: "📨"}),
			utils.CreateButton(id("cancel"), "Cancel", discordgo.DangerButton, false, &discordgo.ComponentEmoji{Name: "✖️"}),
		),
	}
}

func builderModal(section string, d *EmbedDraft) (string, []discordgo.MessageComponent) {
	switch section {
	case "title":
		return "Title & Description", []discordgo.MessageComponent{
			utils.TextInputRow("title", "Title", discordgo.TextInputShort, d.Title, "", false, utils.MaxEmbedTitle),
			utils.TextInputRow("description", "Description", discordgo.TextInputParagraph, d.Description, "", false, 4000),
			utils.TextInputRow("url", "Title link", discordgo.TextInputShort, d.URL, "https://", false, 512),
		}
	case "color":
		return "Color", []discordgo.MessageComponent{
			utils.TextInputRow("color", "Hex colour", discordgo.TextInputShort, d.Color, "#5865F2", false, 7),
		}
	case "author":
		return "Author & Footer", []discordgo.MessageComponent{
			utils.TextInputRow("author", "Author", discordgo.TextInputShort, d.Author, "", false, utils.MaxEmbedAuthor),
			utils.TextInputRow("footer", "Footer", discordgo.TextInputParagraph, d.Footer, "", false, utils.MaxEmbedFooter),
		}
	case "images":
		return "Images", []discordgo.MessageComponent{
			utils.TextInputRow("image", "Image URL", discordgo.TextInputShort, d.ImageURL, "https://", false, 512),
			utils.TextInputRow("thumbnail", "Thumbnail URL", discordgo.TextInputShort, d.Thumbnail, "https://", false, 512),
		}
	case "field":
		return "Add Field", []discordgo.MessageComponent{
			utils.TextInputRow("field_name", "Name", discordgo.TextInputShort, "", "", true, utils.MaxEmbedFieldName),
			utils.TextInputRow("field_value", "Value", discordgo.TextInputParagraph, "", "", true, utils.MaxEmbedFieldValue),
			utils.TextInputRow("field_inline", "Inline? (yes/no)", discordgo.TextInputShort, "no", "", false, 3),
		}
	}
	return "", nil
}

// applyModal returns the draft with the submitted values applied; d itself is
// left untouched so a failed validation keeps the previous state
func applyModal(d *EmbedDraft, section string, values map[string]string) *EmbedDraft {
	next := *d
	next.Fields = append([]DraftField(nil), d.Fields...)
	switch section {
	case "title":
		next.Title = strings.TrimSpace(values["title"])
		next.Description = strings.TrimSpace(values["description"])
		next.URL = strings.TrimSpace(values["url"])
	case "color":
		next.Color = NormalizeColor(values["color"])
	case "author":
		next.Author = strings.TrimSpace(values["author"])
		next.Footer = strings.TrimSpace(values["footer"])
	case "images":
		next.ImageURL = strings.TrimSpace(values["image"])
		next.Thumbnail = strings.TrimSpace(values["thumbnail"])
	case "field":
		inline := strings.ToLower(strings.TrimSpace(values["field_inline"]))
		next.Fields = append(next.Fields, DraftField{
			Name:   strings.TrimSpace(values["field_name"]),
			Value:  strings.TrimSpace(values["field_value"]),
			Inline: inline == "yes" || inline == "y" || inline == "true",
		})
	}
	return &next
}

func builderSession(s utils.Discord, i *discordgo.InteractionCreate, sessionID string) (*utils.Session, error) {
	session, err := utils.Sessions.Authorize(sessionID, utils.InteractionUserID(i))
	if errors.Is(err, utils.ErrForbidden) {
		return nil, utils.RespondError(s, i, utils.NotYourSession)
	}
	if err != nil {
		return nil, utils.ReplyErr(s, i, err)
	}
	return session, nil
}

// HandleEmbedBuilderInteraction handles builder buttons and modal submits
func HandleEmbedBuilderInteraction(s utils.Discord, i *discordgo.InteractionCreate) error {
	if i.Type == discordgo.InteractionModalSubmit {
		return handleBuilderModal(s, i)
	}

	_, action, args := utils.ParseCustomID(i.MessageComponentData().CustomID)
	if len(args) == 0 {
		return nil
	}
	session, err := builderSession(s, i, args[0])
	if session == nil {
		return err
	}
	session.Lock()
	defer session.Unlock()
	if session.Ended() {
		return utils.ReplyErr(s, i, utils.ErrSessionExpired)
	}
	draft := session.Data.(*EmbedDraft)

	switch action {
	case "title", "color", "author", "images", "field":
		title, rows := builderModal(action, draft)
		utils.Sessions.Touch(session.ID)
		return utils.OpenModal(s, i, utils.BuildCustomID("builder", "submit", action, session.ID), title, rows...)

	case "clear":
		draft.Fields = nil
		utils.Sessions.Touch(session.ID)
		return utils.UpdateComponentInteraction(s, i, builderPreview(draft), builderComponents(session.ID, draft))

	case "send":
		if draft.IsEmpty() {
			return utils.RespondError(s, i, describeDraftError(errEmptyDraft))
		}
		if err := draft.Validate(); err != nil {
			return utils.RespondError(s, i, describeDraftError(err))
		}
		if _, err := s.ChannelMessageSendComplex(draft.ChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{draft.Embed()},
		}); err != nil {
			slog.Warn("failed to send built embed", "channel_id", draft.ChannelID, tint.Err(err))
			return utils.RespondError(s, i, fmt.Sprintf("I couldn't send to <#%s>. Check my permissions there.", draft.ChannelID))
		}
		utils.Sessions.End(session.ID)
		done := utils.SuccessEmbed("Embed Sent", fmt.Sprintf("Your embed was posted in <#%s>.", draft.ChannelID))
		return utils.UpdateComponentInteraction(s, i, done, []discordgo.MessageComponent{})

	case "cancel":
		utils.Sessions.End(session.ID)
		return utils.UpdateComponentInteraction(s, i,
			utils.CreateBrandedEmbed("🛠️ Embed Builder", "Cancelled.", utils.ColorWarning), []discordgo.MessageComponent{})
	}
	return nil
}

func handleBuilderModal(s utils.Discord, i *discordgo.InteractionCreate) error {
	data := i.ModalSubmitData()
	_, _, args := utils.ParseCustomID(data.CustomID)
	if len(args) < 2 {
		return nil
	}
	section, sessionID := args[0], args[1]
	session, err := builderSession(s, i, sessionID)
	if session == nil {
		return err
	}
	session.Lock()
	defer session.Unlock()
	if session.Ended() {
		return utils.ReplyErr(s, i, utils.ErrSessionExpired)
	}

	draft := session.Data.(*EmbedDraft)
	next := applyModal(draft, section, utils.ModalValues(data))
	if err := next.Validate(); err != nil {
		return utils.RespondError(s, i, describeDraftError(err))
	}
	session.Data = next
	utils.Sessions.Touch(session.ID)
	return utils.UpdateComponentInteraction(s, i, builderPreview(next), builderComponents(session.ID, next))
}

func expireBuilder(s utils.Discord, session *utils.Session) {
	if _, ok := session.Data.(*EmbedDraft); !ok {
		return
	}
	embeds := []*discordgo.MessageEmbed{utils.CreateTimeoutEmbed()}
	rows := utils.TimeoutView()
	if _, err := s.InteractionResponseEdit(session.Interaction, &discordgo.WebhookEdit{
		Embeds:     &embeds,
		Components: &rows,
	}); err != nil {
		slog.Debug("failed to mark embed builder as expired", "session_id", session.ID, tint.Err(err))
	}
}
