package utils

import (
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// CreateActionRow creates an action row with buttons
func CreateActionRow(buttons ...discordgo.MessageComponent) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: buttons,
	}
}

// CreateButton creates a button component
func CreateButton(customID, label string, style discordgo.ButtonStyle, disabled bool, emoji *discordgo.ComponentEmoji) discordgo.MessageComponent {
	button := discordgo.Button{
		CustomID: customID,
		Label:    label,
		Style:    style,
		Disabled: disabled,
	}

	if emoji != nil {
		button.Emoji = emoji
	}

	return button
}

// CreateSelectMenu creates a string select menu component
func CreateSelectMenu(customID, placeholder string, options []discordgo.SelectMenuOption, minValues, maxValues *int) discordgo.MessageComponent {
	selectMenu := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    customID,
		Placeholder: placeholder,
		Options:     options,
	}

	if minValues != nil {
		selectMenu.MinValues = minValues
	}

	if maxValues != nil {
		selectMenu.MaxValues = *maxValues
	}

	return selectMenu
}

// ConfirmationView creates a view for confirmation dialogs
func ConfirmationView(confirmID, cancelID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		CreateActionRow(
			CreateButton(
				confirmID,
				"Confirm",
				discordgo.SuccessButton,
				false,
				&discordgo.ComponentEmoji{Name: "✅"},
			),
			CreateButton(
				cancelID,
				"Cancel",
				discordgo.DangerButton,
				false,
				&discordgo.ComponentEmoji{Name: "❌"},
			),
		),
	}
}

// TimeoutView is the single disabled button shown once a collector expires
func TimeoutView() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		CreateActionRow(
			CreateButton(
				"timeout_acknowledge",
				"Timed out",
				discordgo.SecondaryButton,
				true,
				&discordgo.ComponentEmoji{Name: "⏰"},
			),
		),
	}
}

// DisableComponents returns a copy of rows with every button and select menu
// disabled. It accepts both the value types the bot builds and the pointer
// types discordgo produces when unmarshalling a received message.
func DisableComponents(rows []discordgo.MessageComponent) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(rows))
	for _, row := range rows {
		var children []discordgo.MessageComponent
		switch r := row.(type) {
		case discordgo.ActionsRow:
			children = r.Components
		case *discordgo.ActionsRow:
			children = r.Components
		default:
			out = append(out, row)
			continue
		}

		disabled := make([]discordgo.MessageComponent, 0, len(children))
		for _, c := range children {
			switch v := c.(type) {
			case discordgo.Button:
				v.Disabled = v.URL == ""
				disabled = append(disabled, v)
			case *discordgo.Button:
				b := *v
				b.Disabled = b.URL == ""
				disabled = append(disabled, b)
			case discordgo.SelectMenu:
				v.Disabled = true
				disabled = append(disabled, v)
			case *discordgo.SelectMenu:
				m := *v
				m.Disabled = true
				disabled = append(disabled, m)
			default:
				disabled = append(disabled, c)
			}
		}
		out = append(out, discordgo.ActionsRow{Components: disabled})
	}
	return out
}

// Buttons flattens rows into the buttons they contain
func Buttons(rows []discordgo.MessageComponent) []discordgo.Button {
	var out []discordgo.Button
	for _, row := range rows {
		var children []discordgo.MessageComponent
		switch r := row.(type) {
		case discordgo.ActionsRow:
			children = r.Components
		case *discordgo.ActionsRow:
			children = r.Components
		}
		for _, c := range children {
			switch b := c.(type) {
			case discordgo.Button:
				out = append(out, b)
			case *discordgo.Button:
				out = append(out, *b)
			}
		}
	}
	return out
}

// TextInputRow wraps a single text input in the action row modals require
func TextInputRow(customID, label string, style discordgo.TextInputStyle, value, placeholder string, required bool, maxLength int) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    customID,
				Label:       label,
				Style:       style,
				Value:       value,
				Placeholder: placeholder,
				Required:    required,
				MaxLength:   maxLength,
			},
		},
	}
}

// ModalValues collects the submitted text input values keyed by custom ID
func ModalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, row := range data.Components {
		var children []discordgo.MessageComponent
		switch r := row.(type) {
		case *discordgo.ActionsRow:
			children = r.Components
		case discordgo.ActionsRow:
			children = r.Components
		}
		for _, c := range children {
			switch in := c.(type) {
			case *discordgo.TextInput:
				values[in.CustomID] = in.Value
			case discordgo.TextInput:
				values[in.CustomID] = in.Value
			}
		}
	}
	return values
}

// SendInteractionResponse replies to an interaction with an embed and components
func SendInteractionResponse(s Discord, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// RespondContent replies with plain text
func RespondContent(s Discord, i *discordgo.InteractionCreate, content string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// RespondError sends an ephemeral error message
func RespondError(s Discord, i *discordgo.InteractionCreate, message string) error {
	return RespondContent(s, i, "❌ "+message, true)
}

// RespondErr renders err with UserMessage and sends it ephemerally
func RespondErr(s Discord, i *discordgo.InteractionCreate, err error) error {
	return RespondError(s, i, UserMessage(err))
}

// RespondSuccess sends an ephemeral confirmation
func RespondSuccess(s Discord, i *discordgo.InteractionCreate, message string) error {
	return RespondContent(s, i, "✅ "+message, true)
}

// DeferInteractionResponse defers an interaction response
func DeferInteractionResponse(s Discord, i *discordgo.InteractionCreate, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	}

	return s.InteractionRespond(i.Interaction, response)
}

// UpdateComponentInteraction updates the message a component is attached to
func UpdateComponentInteraction(s Discord, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	}

	return s.InteractionRespond(i.Interaction, response)
}

// AcknowledgeComponentInteraction acknowledges a component interaction without updating the message
func AcknowledgeComponentInteraction(s Discord, i *discordgo.InteractionCreate) error {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}

	return s.InteractionRespond(i.Interaction, response)
}

// OpenModal answers an interaction with a modal form
func OpenModal(s Discord, i *discordgo.InteractionCreate, customID, title string, rows ...discordgo.MessageComponent) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	})
}

// EditOriginalInteraction edits the original interaction response
func EditOriginalInteraction(s Discord, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	edit := &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	}
	_, err := s.InteractionResponseEdit(i.Interaction, edit)
	return err
}

// TryEphemeralFollowup sends a text followup, for use after a deferred update
func TryEphemeralFollowup(s Discord, i *discordgo.InteractionCreate, content string) error {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}

// IsUserAuthorized checks if the user is allowed to drive a component
func IsUserAuthorized(i *discordgo.InteractionCreate, authorizedUserID string) bool {
	return InteractionUserID(i) == authorizedUserID
}

// ParseUserID converts a Discord user ID string to int64
func ParseUserID(id string) (int64, error) { return strconv.ParseInt(id, 10, 64) }

// ReplyErr shows err to the user and passes it on only when it is unexpected
func ReplyErr(s Discord, i *discordgo.InteractionCreate, err error) error {
	if respErr := RespondErr(s, i, err); respErr != nil {
		return respErr
	}
	if IsUserError(err) {
		return nil
	}
	return err
}

// FollowupErr is ReplyErr for interactions that were already acknowledged
func FollowupErr(s Discord, i *discordgo.InteractionCreate, err error) error {
	if respErr := TryEphemeralFollowup(s, i, "❌ "+UserMessage(err)); respErr != nil {
		return respErr
	}
	if IsUserError(err) {
		return nil
	}
	return err
}
