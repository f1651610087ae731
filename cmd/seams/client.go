package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/client"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/money"
	"github.com/seams-estates/seams/internal/scheduler"
	"github.com/seams-estates/seams/internal/service"
)

func (a *app) apiClient(cmd *cobra.Command) *client.Client {
	url := a.cfg.Client.APIURL
	if v, _ := cmd.Flags().GetString("api"); v != "" {
		url = v
	}
	return client.New(url, client.WithRateLimit(a.cfg.Client.RPS, 1))
}

func sessionPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("session"); p != "" {
		return p, nil
	}
	return client.DefaultSessionPath()
}

// session loads the saved login.
func (a *app) session(cmd *cobra.Command) (*auth.Session, error) {
	path, err := sessionPath(cmd)
	if err != nil {
		return nil, err
	}
	sess, err := client.LoadSession(path)
	if err != nil {
		return nil, fmt.Errorf("%w (run `seams login`)", err)
	}
	return sess, nil
}

func clientFlags(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().String("api", "", "API base URL (overrides SEAMS_API_URL)")
	cmd.Flags().String("session", "", "Session file (defaults to the user config dir)")
	return cmd
}

// parseAmount accepts the same forms the web forms do, such as "1,250.50" or "KES 300".
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := money.ParsePositive(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

func parseOptionalDate(s string) (models.Date, error) {
	if s == "" {
		return models.Date{}, nil
	}
	return models.ParseDate(s)
}

func (a *app) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and save the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("SEAMS_PASSWORD")
			}

			sess, err := a.apiClient(cmd).Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			path, err := sessionPath(cmd)
			if err != nil {
				return err
			}
			if err := client.SaveSession(path, sess); err != nil {
				return err
			}
			fmt.Printf("Signed in as %s (%s) until %s\n", sess.User.Username, sess.Role(), sess.ExpiresAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().String("password", "", "Password (or SEAMS_PASSWORD)")
	return clientFlags(cmd)
}

func (a *app) logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := sessionPath(cmd)
			if err != nil {
				return err
			}
			if sess, err := client.LoadSession(path); err == nil {
				a.apiClient(cmd).Logout(sess)
			}
			return client.RemoveSession(path)
		},
	}
	return clientFlags(cmd)
}

func (a *app) balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance [tenant-id]",
		Short: "Show a tenant's bills, payments and outstanding balance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd)
			if err != nil {
				return err
			}
			var tenantID string
			if len(args) == 1 {
				tenantID = args[0]
			}

			st, err := a.apiClient(cmd).Statement(cmd.Context(), sess, tenantID)
			if err != nil {
				return err
			}
			printStatement(st)
			return nil
		},
	}
	return clientFlags(cmd)
}

func printStatement(st *service.TenantStatement) {
	fmt.Printf("%s, house %s\n\n", st.Tenant.Name, st.Tenant.HouseNumber())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BILL\tMONTH\tAMOUNT\tPAID")
	for _, b := range st.Bills {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", b.BillType, b.MonthFor, money.Format(b.Amount), b.Paid)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PAYMENT\tREFERENCE\tAMOUNT\tVERIFIED")
	for _, p := range st.Payments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", p.PaymentDate, p.ReferenceNumber, money.Format(p.Amount), p.Verified)
	}
	w.Flush()

	fmt.Printf("\nRent:        %s\n", money.Format(st.Statement.Rent))
	fmt.Printf("Bills:       %s\n", money.Format(st.Statement.Billed))
	fmt.Printf("Paid:        %s\n", money.Format(st.Statement.PaidIn))
	fmt.Printf("Pending:     %s\n", money.Format(st.Statement.Pending))
	fmt.Printf("Outstanding: %s\n", st.Display)
	if st.Statement.Credit.IsPositive() {
		fmt.Printf("Credit:      %s\n", money.Format(st.Statement.Credit))
	}
}

func (a *app) payCmd() *cobra.Command {
	var in service.RecordPaymentInput
	var amount, method, kind, date, month string

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Record a payment for verification",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd)
			if err != nil {
				return err
			}
			if in.TenantID == "" {
				in.TenantID = sess.TenantID
			}
			if in.Amount, err = parseAmount(amount); err != nil {
				return err
			}
			if in.PaymentDate, err = parseOptionalDate(date); err != nil {
				return err
			}
			if in.MonthFor, err = parseOptionalDate(month); err != nil {
				return err
			}
			in.PaymentMethod = models.PaymentMethod(method)
			in.PaymentType = models.ChargeType(kind)

			p, err := a.apiClient(cmd).RecordPayment(cmd.Context(), sess, in)
			if err != nil {
				return err
			}
			fmt.Printf("Recorded payment %s of %s (ref %s); awaiting verification\n", p.ID, money.Format(p.Amount), p.ReferenceNumber)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.TenantID, "tenant", "", "Tenant id (defaults to your own tenancy)")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in KES")
	cmd.Flags().StringVar(&method, "method", string(models.MethodMpesa), "mpesa, bank, cash or cheque")
	cmd.Flags().StringVar(&kind, "type", string(models.ChargeRent), "What the payment is for")
	cmd.Flags().StringVar(&in.ReferenceNumber, "ref", "", "Transaction reference")
	cmd.Flags().StringVar(&date, "date", "", "Payment date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&month, "month", "", "Month covered YYYY-MM-DD (default payment month)")
	_ = cmd.MarkFlagRequired("amount")
	return clientFlags(cmd)
}

func (a *app) verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <payment-id>",
		Short: "Verify a payment and settle bills oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd)
			if err != nil {
				return err
			}
			result, err := a.apiClient(cmd).VerifyPayment(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}
			fmt.Println(result.Message)
			if result.Unallocated.IsPositive() {
				fmt.Printf("Unallocated: %s\n", money.Format(result.Unallocated))
			}
			return nil
		},
	}
	return clientFlags(cmd)
}

func (a *app) billCmd() *cobra.Command {
	var in service.PostBillInput
	var amount, kind, month string

	cmd := &cobra.Command{
		Use:   "bill",
		Short: "Post a charge against a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd)
			if err != nil {
				return err
			}
			if in.Amount, err = parseAmount(amount); err != nil {
				return err
			}
			if in.MonthFor, err = parseOptionalDate(month); err != nil {
				return err
			}
			in.BillType = models.ChargeType(kind)

			b, err := a.apiClient(cmd).PostBill(cmd.Context(), sess, in)
			if err != nil {
				return err
			}
			fmt.Printf("Posted %s bill %s of %s for %s\n", b.BillType, b.ID, money.Format(b.Amount), b.MonthFor)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.TenantID, "tenant", "", "Tenant id")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in KES")
	cmd.Flags().StringVar(&kind, "type", string(models.ChargeWater), "rent, water, electricity, garbage, damage, deposit or other")
	cmd.Flags().StringVar(&month, "month", "", "Month billed YYYY-MM-DD (default this month)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Free text")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("amount")
	return clientFlags(cmd)
}

func (a *app) notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List unread notifications, or keep polling with --watch",
		RunE: func(cmd *cobra.Command, args []string) error {
			watch, _ := cmd.Flags().GetBool("watch")
			markRead, _ := cmd.Flags().GetBool("mark-read")

			sess, err := a.session(cmd)
			if err != nil {
				return err
			}
			w := &notificationWatcher{
				api:      a.apiClient(cmd),
				sess:     sess,
				markRead: markRead,
				seen:     make(map[string]bool),
			}
			if !watch {
				return w.poll(cmd.Context())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return w.watch(ctx, scheduler.Config{
				Name:           "notifications",
				Interval:       a.cfg.Client.PollInterval,
				Jitter:         a.cfg.Client.PollJitter,
				RunImmediately: true,
			}, a.logger)
		},
	}
	cmd.Flags().Bool("watch", false, "Poll until interrupted")
	cmd.Flags().Bool("mark-read", false, "Mark each printed notification read")
	return clientFlags(cmd)
}

// errLoginAgain ends a watch whose session the server no longer accepts.
var errLoginAgain = errors.New("session expired, run 'seams login' again")

// notificationWatcher prints each unread notification once.
type notificationWatcher struct {
	api      *client.Client
	sess     *auth.Session
	markRead bool
	seen     map[string]bool

	// stop ends the watch; poll calls it once the session is unusable.
	stop    context.CancelFunc
	expired bool
}

// watch polls on cfg's schedule until ctx ends or the session stops working.
func (w *notificationWatcher) watch(ctx context.Context, cfg scheduler.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.stop = cancel

	poller := scheduler.New(w.poll, cfg, logger)
	poller.Start(ctx)
	<-ctx.Done()
	if err := poller.Stop(context.Background()); err != nil {
		return err
	}
	if w.expired {
		return errLoginAgain
	}
	return nil
}

func (w *notificationWatcher) poll(ctx context.Context) error {
	notes, err := w.api.Notifications(ctx, w.sess, true)
	if errors.Is(err, client.ErrSessionExpired) || errors.Is(err, client.ErrUnauthorized) {
		w.expired = true
		if w.stop != nil {
			w.stop()
		}
		return fmt.Errorf("%w: %w", errLoginAgain, err)
	}
	if err != nil {
		return err
	}
	for i := len(notes) - 1; i >= 0; i-- {
		n := notes[i]
		if w.seen[n.ID] {
			continue
		}
		w.seen[n.ID] = true
		fmt.Printf("[%s] %s\n", n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message)
		if w.markRead {
			if err := w.api.MarkRead(ctx, w.sess, n.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
