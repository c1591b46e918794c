package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/loaves/pkg/client"
	"github.com/aretw0/loaves/pkg/domain"
)

func money(p domain.Price) string {
	if !p.Valid() {
		return "n/a"
	}
	return fmt.Sprintf("$%.2f", p.Float())
}

// MenuMarkdown lists the product cards with the state of their cart control.
func MenuMarkdown(products []domain.Product, view client.ViewState) string {
	var b strings.Builder
	b.WriteString("# Online Orders\n\n")
	if len(products) == 0 {
		b.WriteString("_The menu is empty._\n")
		return b.String()
	}

	b.WriteString("| ID | Product | Price | In cart |\n|---|---|---|---|\n")
	for _, p := range products {
		inCart := "add"
		if ctl, ok := view.Control(p.ID); ok && ctl.State == client.Active {
			inCart = fmt.Sprintf("− %d +", ctl.Quantity)
		}
		fmt.Fprintf(&b, "| `%s` | **%s** %s | %s | %s |\n", p.ID, p.Title, p.Text, money(p.Price), inCart)
	}
	b.WriteString(badge(view))
	return b.String()
}

// CartMarkdown renders the cart page.
func CartMarkdown(view client.ViewState) string {
	var b strings.Builder
	b.WriteString("# Your Cart\n\n")
	if view.Empty {
		b.WriteString("_Your Cart is empty_\n")
		return b.String()
	}

	for _, ctl := range view.Controls {
		if ctl.State != client.Active {
			continue
		}
		subtotal := domain.Price(ctl.Price.Float() * float64(ctl.Quantity))
		fmt.Fprintf(&b, "* **%s** - %d selected (%s)\n", ctl.Title, ctl.Quantity, money(subtotal))
	}
	fmt.Fprintf(&b, "\n**Total: $%.2f**\n", view.Total)
	b.WriteString(badge(view))
	return b.String()
}

// ReceiptMarkdown renders a placed order.
func ReceiptMarkdown(r domain.Receipt) string {
	var b strings.Builder
	b.WriteString("# Thank you!\n\n")
	if r.Count == 0 {
		b.WriteString("Your cart was empty, so nothing was ordered.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Your order of %d item(s) has been placed.\n\n", r.Count)
	for _, item := range r.Items {
		fmt.Fprintf(&b, "* %d × %s\n", item.Quantity, item.Title)
	}
	fmt.Fprintf(&b, "\n**Total: $%.2f**\n", r.Total)
	return b.String()
}

func badge(view client.ViewState) string {
	if !view.BadgeVisible {
		return ""
	}
	return fmt.Sprintf("\n🛒 %d\n", view.Count)
}
