package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/xenking/atelier-cart/internal/apperr"
	"github.com/xenking/atelier-cart/internal/cartstate"
	"github.com/xenking/atelier-cart/internal/domain/auth"
	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/order"
	"github.com/xenking/atelier-cart/internal/domain/pricing"
)

// catalog resolves product ids to the details a cart line needs.
type catalog interface {
	FetchProduct(ctx context.Context, productID string) (cart.Product, error)
	ListProducts(ctx context.Context) ([]cart.Product, error)
}

type cli struct {
	state   *cartstate.Container
	catalog catalog
	out     io.Writer
}

type command struct {
	args  string
	about string
	run   func(c *cli, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"products": {about: "List the catalog", run: (*cli).products},
	"show":     {about: "Print the cart, totals and wishlist", run: (*cli).show},
	"add":      {args: "[-size S] [-color C] <product> [qty]", about: "Add a product to the cart", run: (*cli).add},
	"remove":   {args: "[-size S] [-color C] <product>", about: "Remove matching cart lines", run: (*cli).remove},
	"qty":      {args: "[-size S] [-color C] <product> <qty>", about: "Set a line quantity; 0 removes it", run: (*cli).qty},
	"clear":    {about: "Empty the cart", run: (*cli).clear},
	"coupon":   {args: "<code>", about: "Apply a coupon", run: (*cli).coupon},
	"uncoupon": {about: "Remove the coupon", run: (*cli).uncoupon},
	"wish":     {args: "<product>", about: "Save a product to the wishlist", run: (*cli).wish},
	"unwish":   {args: "<product>", about: "Remove a product from the wishlist", run: (*cli).unwish},
	"move":     {args: "[-size S] [-color C] <product> [qty]", about: "Move a wishlist product to the cart", run: (*cli).move},
	"login":    {args: "[-name N] <email> <token>", about: "Sign in with an access token", run: (*cli).login},
	"logout":   {about: "Sign out and keep the cart", run: (*cli).logout},
	"sync":     {about: "Refetch the remote cart and wishlist", run: (*cli).sync},
	"checkout": {args: "-name N -line1 L -city C -state S -postal P -country CC [-payment M]", about: "Place an order", run: (*cli).checkout},
}

// badArgs is shown to the user as is.
func badArgs(msg string) error {
	return &apperr.ValidationError{Message: msg}
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	_, _ = fmt.Fprintln(w, "usage: cartctl [flags] <command> [args]")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range names {
		cmd := commands[name]
		_, _ = fmt.Fprintf(tw, "  %s %s\t%s\n", name, cmd.args, cmd.about)
	}
	_ = tw.Flush()
}

// run dispatches args[0] to its command.
func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage(c.out)
		return badArgs("no command")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(c.out)
		return badArgs(fmt.Sprintf("unknown command %q", args[0]))
	}
	return cmd.run(c, ctx, args[1:])
}

// variantFlags parses -size and -color ahead of positional arguments.
func variantFlags(name string, args []string, minArgs int) (size, color *string, rest []string, err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	s := fs.String("size", "", "size option")
	col := fs.String("color", "", "color option")
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, badArgs(err.Error())
	}
	if fs.NArg() < minArgs {
		return nil, nil, nil, badArgs(fmt.Sprintf("%s: expected %d argument(s)", name, minArgs))
	}
	return cart.Option(*s), cart.Option(*col), fs.Args(), nil
}

func quantityArg(args []string, i int) int {
	if len(args) <= i {
		return 1
	}
	return cart.ParseQuantity(args[i])
}

func (c *cli) products(ctx context.Context, _ []string) error {
	all, err := c.catalog.ListProducts(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, p := range all {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, money(p.Price))
	}
	return tw.Flush()
}

func (c *cli) show(context.Context, []string) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)

	if u := c.state.User(); u != nil {
		_, _ = fmt.Fprintf(tw, "Signed in as %s (%s)\n", u.Email, c.state.State())
	} else {
		_, _ = fmt.Fprintln(tw, "Signed out")
	}

	ct := c.state.Cart()
	_, _ = fmt.Fprintf(tw, "Cart: %d item(s)\n", c.state.ItemCount())
	for _, l := range ct.Items {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\tx%d\t%s\n",
			l.ProductID, l.Name, l.Variant(), l.Quantity, money(l.Subtotal()))
	}

	if cp := c.state.Coupon(); cp != nil {
		_, _ = fmt.Fprintf(tw, "Coupon\t%s\n", cp.Code)
	}
	printCheckout(tw, c.state.Checkout())

	wl := c.state.Wishlist()
	_, _ = fmt.Fprintf(tw, "Wishlist: %d item(s)\n", len(wl))
	for _, it := range wl {
		suffix := ""
		if it.IsLocal() {
			suffix = "(not synced)"
		}
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", it.ProductID, it.Product.Name, money(it.Product.Price), suffix)
	}

	errs := c.state.Errors()
	for _, e := range []struct{ scope, msg string }{
		{"cart", errs.Cart}, {"wishlist", errs.Wishlist}, {"coupon", errs.Coupon}, {"checkout", errs.Checkout},
	} {
		if e.msg != "" {
			_, _ = fmt.Fprintf(tw, "! %s\t%s\n", e.scope, e.msg)
		}
	}
	return tw.Flush()
}

func printCheckout(w io.Writer, s pricing.Checkout) {
	_, _ = fmt.Fprintf(w, "Subtotal\t%s\n", money(s.Subtotal))
	_, _ = fmt.Fprintf(w, "Discount\t-%s\n", money(s.Discount))
	_, _ = fmt.Fprintf(w, "Shipping\t%s\n", money(s.Shipping))
	_, _ = fmt.Fprintf(w, "Tax\t%s\n", money(s.Tax))
	_, _ = fmt.Fprintf(w, "Total\t%s\n", money(s.GrandTotal))
}

func money(v decimal.Decimal) string {
	return pricing.Round2(v).StringFixed(2)
}

func (c *cli) add(ctx context.Context, args []string) error {
	size, color, rest, err := variantFlags("add", args, 1)
	if err != nil {
		return err
	}
	p, err := c.catalog.FetchProduct(ctx, rest[0])
	if err != nil {
		return err
	}
	return c.state.AddToCart(ctx, p, quantityArg(rest, 1), size, color)
}

func (c *cli) remove(ctx context.Context, args []string) error {
	size, color, rest, err := variantFlags("remove", args, 1)
	if err != nil {
		return err
	}
	return c.state.RemoveFromCart(ctx, rest[0], size, color)
}

func (c *cli) qty(ctx context.Context, args []string) error {
	size, color, rest, err := variantFlags("qty", args, 2)
	if err != nil {
		return err
	}
	key := cart.Key{ProductID: rest[0], Size: size, Color: color}
	return c.state.UpdateQuantity(ctx, key, cart.ParseQuantity(rest[1]))
}

func (c *cli) clear(ctx context.Context, _ []string) error {
	return c.state.ClearCart(ctx)
}

func (c *cli) coupon(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return badArgs("coupon: expected a code")
	}
	cp, err := c.state.ApplyCoupon(ctx, args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.out, "Coupon %s applied: -%s\n", cp.Code, money(cp.DiscountAmount))
	return nil
}

func (c *cli) uncoupon(context.Context, []string) error {
	c.state.RemoveCoupon()
	return nil
}

func (c *cli) wish(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return badArgs("wish: expected a product")
	}
	p, err := c.catalog.FetchProduct(ctx, args[0])
	if err != nil {
		return err
	}
	return c.state.AddToWishlist(ctx, p)
}

func (c *cli) unwish(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return badArgs("unwish: expected a product")
	}
	return c.state.RemoveFromWishlist(ctx, args[0])
}

func (c *cli) move(ctx context.Context, args []string) error {
	size, color, rest, err := variantFlags("move", args, 1)
	if err != nil {
		return err
	}
	return c.state.MoveToCart(ctx, rest[0], quantityArg(rest, 1), size, color)
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return badArgs(err.Error())
	}
	if fs.NArg() != 2 {
		return badArgs("login: expected <email> <token>")
	}
	email := fs.Arg(0)
	return c.state.Login(ctx, auth.Session{
		User:   auth.User{ID: email, Email: email, Name: *name},
		Tokens: auth.Tokens{AccessToken: fs.Arg(1)},
	})
}

func (c *cli) logout(ctx context.Context, _ []string) error {
	return c.state.Logout(ctx)
}

func (c *cli) sync(ctx context.Context, _ []string) error {
	return c.state.Refresh(ctx)
}

func (c *cli) checkout(ctx context.Context, args []string) error {
	var (
		req     order.Request
		payment string
	)
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&req.ShippingAddress.FullName, "name", "", "full name")
	fs.StringVar(&req.ShippingAddress.Line1, "line1", "", "address line 1")
	fs.StringVar(&req.ShippingAddress.Line2, "line2", "", "address line 2")
	fs.StringVar(&req.ShippingAddress.City, "city", "", "city")
	fs.StringVar(&req.ShippingAddress.State, "state", "", "state or region")
	fs.StringVar(&req.ShippingAddress.PostalCode, "postal", "", "postal code")
	fs.StringVar(&req.ShippingAddress.Country, "country", "", "ISO 3166 alpha-2 country")
	fs.StringVar(&req.ShippingAddress.Phone, "phone", "", "E.164 phone number")
	fs.StringVar(&payment, "payment", string(order.PaymentCard), "card, paypal or cash_on_delivery")
	if err := fs.Parse(args); err != nil {
		return badArgs(err.Error())
	}
	req.PaymentMethod = order.PaymentMethod(payment)

	receipt, err := c.state.PlaceOrder(ctx, req)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.out, "Order %s %s: %s\n", receipt.ID, receipt.Status, money(receipt.Total))
	return nil
}
