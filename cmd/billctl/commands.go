package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/pkg/clients/canebill"
)

const requestTimeout = 30 * time.Second

var stdout io.Writer = os.Stdout

func newClient() *canebill.Client {
	return canebill.NewClient(opts.URL, opts.Token)
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

type loginCmd struct {
	Args struct {
		Username string `positional-arg-name:"username" required:"true"`
		Password string `positional-arg-name:"password" required:"true"`
	} `positional-args:"true"`
}

func (c *loginCmd) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()
	session, err := newClient().Login(ctx, c.Args.Username, c.Args.Password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, session.Token)
	return err
}

type billsCmd struct {
	Owner string `long:"owner" description:"exact owner name"`
	From  string `long:"from" description:"first day, 2006-01-02"`
	To    string `long:"to" description:"last day, 2006-01-02"`
}

func (c *billsCmd) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()
	bills, err := newClient().ListBills(ctx, canebill.BillQuery{Owner: c.Owner, From: c.From, To: c.To})
	if err != nil {
		return err
	}
	return printJSON(bills)
}

type addBillCmd struct {
	Number string   `long:"number" required:"true" description:"bill number"`
	Owner  string   `long:"owner" required:"true" description:"owner name"`
	Quota  string   `long:"quota" description:"quota number"`
	Plate  string   `long:"plate" description:"license plate"`
	Date   string   `long:"date" description:"bill date, 2006-01-02 (default today)"`
	Type   int      `long:"type" default:"1" description:"1 fresh, 2 burnt, 3 long top"`
	Weight float64  `long:"weight" required:"true" description:"weight in tons"`
	Fuel   float64  `long:"fuel" description:"fuel cost deducted from the total"`
	Price  *float64 `long:"price" description:"manual price per ton"`
}

func (c *addBillCmd) Execute([]string) error {
	if !models.SugarcaneType(c.Type).Valid() {
		return errors.New("--type must be 1, 2 or 3")
	}
	date := c.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	ctx, cancel := commandContext()
	defer cancel()
	bill, err := newClient().CreateBill(ctx, canebill.CreateBillRequest{
		BillNumber:    c.Number,
		OwnerName:     c.Owner,
		QuotaNumber:   c.Quota,
		LicensePlate:  c.Plate,
		Date:          date,
		SugarcaneType: models.SugarcaneType(c.Type),
		Weight:        c.Weight,
		FuelCost:      c.Fuel,
		ManualPrice:   c.Price,
	})
	if err != nil {
		return err
	}
	return printJSON(bill)
}

type priceCheckCmd struct {
	Date string `long:"date" description:"date to resolve, 2006-01-02 (default today)"`
}

func (c *priceCheckCmd) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()
	res, err := newClient().PriceCheck(ctx, c.Date)
	if err != nil {
		return err
	}
	return printJSON(res)
}

type statsCmd struct {
	From string `long:"from" description:"first day, 2006-01-02"`
	To   string `long:"to" description:"last day, 2006-01-02"`
}

func (c *statsCmd) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()
	stats, err := newClient().Stats(ctx, canebill.BillQuery{From: c.From, To: c.To})
	if err != nil {
		return err
	}
	return printJSON(stats)
}
