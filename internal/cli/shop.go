package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/loaves/internal/logging"
	"github.com/aretw0/loaves/internal/presentation/tui"
	"github.com/aretw0/loaves/pkg/client"
	"github.com/aretw0/loaves/pkg/domain"
)

const shopHelp = `Commands:
  menu            show the menu
  cart            show the cart
  add <id>        add a product from the menu
  + <id>          one more
  - <id>          one less
  rm <id>         remove from the cart page
  clear           empty the cart
  checkout        place the order
  quit            leave the shop`

// ShopOptions configures the terminal storefront.
type ShopOptions struct {
	URL    string
	In     io.Reader
	Out    io.Writer
	Render func(string) (string, error)
	Logger *slog.Logger
}

// shop is one terminal storefront session.
type shop struct {
	opts  ShopOptions
	api   *client.Client
	menu  []domain.Product
	page  *client.Page
	front *client.Storefront
}

// RunShop runs the interactive storefront against the server at opts.URL
// until the input ends, "quit" is entered or ctx is done.
func RunShop(ctx context.Context, opts ShopOptions) error {
	if opts.Render == nil {
		opts.Render = func(s string) (string, error) { return s, nil }
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	api, err := client.New(opts.URL)
	if err != nil {
		return err
	}
	s := &shop{opts: opts, api: api}
	defer s.close()

	if err := s.showMenu(ctx); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(opts.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(opts.Out, "> ")
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(opts.Out)
			return handleExecutionError(ctx.Err())
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(opts.Out)
			return nil
		}

		quit, err := s.handle(ctx, strings.Fields(line))
		if err != nil {
			printSystemMessage(opts.Out, "%v", err)
		}
		if quit {
			printSystemMessage(opts.Out, "Bye!")
			return nil
		}
	}
}

func (s *shop) handle(ctx context.Context, fields []string) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	withID := func(fn func(string) error) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <id>", cmd)
		}
		if err := fn(args[0]); err != nil {
			return err
		}
		return s.render()
	}

	switch cmd {
	case "q", "quit", "exit":
		return true, nil
	case "help", "?":
		fmt.Fprintln(s.opts.Out, shopHelp)
		return false, nil
	case "menu":
		return false, s.showMenu(ctx)
	case "cart":
		return false, s.showCart(ctx)
	case "add":
		return false, withID(func(id string) error {
			if s.page.Kind != client.MenuPage {
				if err := s.showMenu(ctx); err != nil {
					return err
				}
			}
			return s.front.Activate(id)
		})
	case "+":
		return false, withID(s.front.Increment)
	case "-":
		return false, withID(s.front.Decrement)
	case "rm":
		return false, withID(s.front.Remove)
	case "clear":
		if err := s.front.Flush(ctx); err != nil {
			return false, err
		}
		if err := s.api.ClearCart(ctx); err != nil {
			return false, fmt.Errorf("failed to clear cart: %w", err)
		}
		return false, s.refresh(ctx)
	case "checkout":
		if err := s.front.Flush(ctx); err != nil {
			return false, err
		}
		receipt, err := s.api.Checkout(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to place order: %w", err)
		}
		if err := s.print(tui.ReceiptMarkdown(receipt)); err != nil {
			return false, err
		}
		return false, s.showMenu(ctx)
	default:
		return false, fmt.Errorf("unknown command %q (type help)", cmd)
	}
}

// open replaces the current storefront with one for page and syncs it.
func (s *shop) open(ctx context.Context, page *client.Page) error {
	s.close()
	s.page = page
	s.front = client.NewStorefront(s.api, page, client.WithLogger(s.opts.Logger))
	if err := s.front.Sync(ctx); err != nil {
		return err
	}
	return s.render()
}

func (s *shop) showMenu(ctx context.Context) error {
	if s.front != nil {
		if err := s.front.Flush(ctx); err != nil {
			return err
		}
	}
	products, err := s.api.Menu(ctx)
	if err != nil {
		return fmt.Errorf("failed to load menu: %w", err)
	}
	s.menu = products
	return s.open(ctx, client.NewMenuPage(products))
}

func (s *shop) showCart(ctx context.Context) error {
	if s.front != nil {
		if err := s.front.Flush(ctx); err != nil {
			return err
		}
	}
	c, err := s.api.Cart(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	return s.open(ctx, client.NewCartPage(c))
}

func (s *shop) refresh(ctx context.Context) error {
	if s.page.Kind == client.CartPage {
		return s.showCart(ctx)
	}
	return s.open(ctx, client.NewMenuPage(s.menu))
}

func (s *shop) render() error {
	view := s.front.View()
	if s.page.Kind == client.CartPage {
		return s.print(tui.CartMarkdown(view))
	}
	return s.print(tui.MenuMarkdown(s.page.Cards(), view))
}

func (s *shop) print(markdown string) error {
	out, err := s.opts.Render(markdown)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	_, err = fmt.Fprint(s.opts.Out, out)
	return err
}

func (s *shop) close() {
	if s.front != nil {
		s.front.Close()
		s.front = nil
	}
}
