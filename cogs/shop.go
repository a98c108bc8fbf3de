package cogs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"harbor-go/models"
	"harbor-go/utils"
)

const maxPurchaseQuantity = 100

// RegisterShopCommands returns /shop, /buy, /sell and /inventory
func RegisterShopCommands() []*discordgo.ApplicationCommand {
	itemChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(utils.ShopItems))
	for _, it := range utils.ShopItems {
		itemChoices = append(itemChoices, &discordgo.ApplicationCommandOptionChoice{Name: it.Name, Value: it.ID})
	}
	minQty := 1.0
	itemOptions := func(verb string) []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "item", Description: "Item to " + verb, Required: true, Choices: itemChoices},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "quantity", Description: "How many (default 1)", MinValue: &minQty, MaxValue: maxPurchaseQuantity},
		}
	}
	return []*discordgo.ApplicationCommand{
		{Name: "shop", Description: "Browse the shop"},
		{Name: "buy", Description: "Buy an item from the shop", Options: itemOptions("buy")},
		{Name: "sell", Description: "Sell an item back for half its price", Options: itemOptions("sell")},
		{
			Name:        "inventory",
			Description: "Show the items someone owns",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Whose inventory (defaults to you)"},
			},
		},
	}
}

// HandleShopCommand handles /shop
func HandleShopCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	embed, components := shopView(utils.InteractionUserID(i))
	return utils.SendInteractionResponse(s, i, embed, components, true)
}

func shopView(ownerID string) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	var b strings.Builder
	options := make([]discordgo.SelectMenuOption, 0, len(utils.ShopItems))
	for _, it := range utils.ShopItems {
		fmt.Fprintf(&b, "%s **%s** %s\n%s\n\n", it.Emoji, it.Name, utils.FormatCoins(it.Price), it.Description)
		options = append(options, discordgo.SelectMenuOption{
			Label:       it.Name,
			Value:       it.ID,
			Description: utils.Truncate(it.Description, 100),
			Emoji:       &discordgo.ComponentEmoji{Name: it.Emoji},
		})
	}
	embed := utils.CreateBrandedEmbed("🛒 Shop", b.String(), utils.BotColor)
	menu := utils.CreateSelectMenu(utils.BuildCustomID("shop", "select", ownerID), "Choose an item to buy...", options, nil, nil)
	return embed, []discordgo.MessageComponent{utils.CreateActionRow(menu)}
}

func confirmPurchaseView(ownerID string, item utils.Item, qty int) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := utils.CreateBrandedEmbed("🛒 Confirm Purchase",
		fmt.Sprintf("Buy **%d× %s %s** for **%s**?", qty, item.Emoji, item.Name, utils.FormatCoins(item.Price*int64(qty))),
		utils.ColorInfo)
	components := utils.ConfirmationView(
		utils.BuildCustomID("shop", "buy", ownerID, item.ID, strconv.Itoa(qty)),
		utils.BuildCustomID("shop", "cancel", ownerID),
	)
	return embed, components
}

// HandleShopInteraction handles the shop select menu and confirm buttons
func HandleShopInteraction(s utils.Discord, i *discordgo.InteractionCreate) error {
	data := i.MessageComponentData()
	_, action, args := utils.ParseCustomID(data.CustomID)
	if len(args) == 0 {
		return nil
	}
	if !utils.IsUserAuthorized(i, args[0]) {
		return utils.RespondError(s, i, utils.NotYourSession)
	}

	switch action {
	case "select":
		if len(data.Values) == 0 {
			return utils.AcknowledgeComponentInteraction(s, i)
		}
		item, ok := utils.FindItem(data.Values[0])
		if !ok {
			return utils.ReplyErr(s, i, utils.ErrNotFound)
		}
		embed, components := confirmPurchaseView(args[0], item, 1)
		return utils.UpdateComponentInteraction(s, i, embed, components)

	case "buy":
		if len(args) < 3 {
			return nil
		}
		item, ok := utils.FindItem(args[1])
		if !ok {
			return utils.ReplyErr(s, i, utils.ErrNotFound)
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil || qty <= 0 {
			return utils.ReplyErr(s, i, utils.ErrInvalidAmount)
		}
		embed, err := purchase(context.Background(), i, item, qty)
		if err != nil {
			return utils.ReplyErr(s, i, err)
		}
		return utils.UpdateComponentInteraction(s, i, embed, []discordgo.MessageComponent{})

	case "cancel":
		embed := utils.CreateBrandedEmbed("🛒 Purchase Cancelled", "Nothing was bought.", utils.ColorWarning)
		return utils.UpdateComponentInteraction(s, i, embed, []discordgo.MessageComponent{})
	}
	return nil
}

// purchase buys qty of item for the invoker. Insufficient funds render as an
// embed rather than an error.
func purchase(ctx context.Context, i *discordgo.InteractionCreate, item utils.Item, qty int) (*discordgo.MessageEmbed, error) {
	userID, err := utils.InvokerID(i)
	if err != nil {
		return nil, err
	}
	user, err := utils.BuyItem(ctx, userID, item, qty)
	if errors.Is(err, utils.ErrInsufficientFunds) {
		current, getErr := utils.GetUser(ctx, userID)
		if getErr != nil {
			return nil, getErr
		}
		return utils.InsufficientFundsEmbed(item.Price*int64(qty), current.Wallet, fmt.Sprintf("%d× %s", qty, item.Name)), nil
	}
	if err != nil {
		return nil, err
	}
	embed := utils.SuccessEmbed("Purchase Complete",
		fmt.Sprintf("You bought **%d× %s %s** for %s.", qty, item.Emoji, item.Name, utils.FormatCoins(item.Price*int64(qty))))
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Wallet", Value: utils.FormatCoins(user.Wallet), Inline: true},
		{Name: "Owned", Value: strconv.Itoa(user.ItemCount(item.ID)), Inline: true},
	}
	return embed, nil
}

// HandleBuyCommand handles /buy
func HandleBuyCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	opts := utils.Options(i)
	item, ok := utils.FindItem(opts.String("item", ""))
	if !ok {
		return utils.ReplyErr(s, i, utils.ErrNotFound)
	}
	qty := int(opts.Int("quantity", 1))
	if qty <= 0 || qty > maxPurchaseQuantity {
		return utils.ReplyErr(s, i, utils.ErrInvalidAmount)
	}
	embed, err := purchase(context.Background(), i, item, qty)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	return utils.SendInteractionResponse(s, i, embed, nil, false)
}

// HandleSellCommand handles /sell
func HandleSellCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	userID, err := utils.InvokerID(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	opts := utils.Options(i)
	item, ok := utils.FindItem(opts.String("item", ""))
	if !ok {
		return utils.ReplyErr(s, i, utils.ErrNotFound)
	}
	qty := int(opts.Int("quantity", 1))
	if qty <= 0 || qty > maxPurchaseQuantity {
		return utils.ReplyErr(s, i, utils.ErrInvalidAmount)
	}

	user, earned, err := utils.SellItem(context.Background(), userID, item, qty)
	if errors.Is(err, utils.ErrNotFound) {
		return utils.RespondError(s, i, fmt.Sprintf("You don't have %d× %s to sell.", qty, item.Name))
	}
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	embed := utils.SuccessEmbed("Sold",
		fmt.Sprintf("You sold **%d× %s %s** for %s.", qty, item.Emoji, item.Name, utils.FormatCoins(earned)))
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Wallet", Value: utils.FormatCoins(user.Wallet), Inline: true},
	}
	return utils.SendInteractionResponse(s, i, embed, nil, false)
}

// HandleInventoryCommand handles /inventory
func HandleInventoryCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	discordUser, id, err := targetUser(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	user, err := utils.GetUser(context.Background(), id)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	embed := inventoryEmbed(user, discordUser)
	return utils.SendInteractionResponse(s, i, embed, nil, false)
}

func inventoryEmbed(user *models.User, discordUser *discordgo.User) *discordgo.MessageEmbed {
	ids := make([]string, 0, len(user.Inventory))
	for id, n := range user.Inventory {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var b strings.Builder
	var worth int64
	for _, id := range ids {
		n := user.Inventory[id]
		if item, ok := utils.FindItem(id); ok {
			fmt.Fprintf(&b, "%s **%s** ×%d\n", item.Emoji, item.Name, n)
			worth += item.SellPrice() * int64(n)
			continue
		}
		fmt.Fprintf(&b, "**%s** ×%d\n", id, n)
	}
	if b.Len() == 0 {
		b.WriteString("Nothing here yet. Visit `/shop`.")
	}

	embed := utils.CreateBrandedEmbed(fmt.Sprintf("🎒 %s's Inventory", discordUser.Username), b.String(), utils.BotColor)
	if worth > 0 {
		embed.Fields = []*discordgo.MessageEmbedField{{Name: "Resale Value", Value: utils.FormatCoins(worth), Inline: true}}
	}
	return embed
}
