package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/homeshelf/lending-ledger-go/ledger"
	"github.com/homeshelf/lending-ledger-go/ledger/catalog"
	"github.com/homeshelf/lending-ledger-go/ledger/coordinator"
	"github.com/homeshelf/lending-ledger-go/ledger/lending"
)

const dateFormat = "2006-01-02"

func newRootCommand(c *coordinator.Coordinator, config *Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shelfctl",
		Short:         "Manage the book catalog, loans and transaction history",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newAddCommand(c),
		newRemoveCommand(c),
		newListCommand(c),
		newBorrowCommand(c),
		newReturnCommand(c),
		newExtendCommand(c),
		newLoansCommand(c),
		newReturnedCommand(c),
		newDueSoonCommand(c),
		newOverdueCommand(c),
		newHistoryCommand(c),
		newStatsCommand(c),
		newDraftCommand(c, config),
	)

	return rootCmd
}

func newAddCommand(c *coordinator.Coordinator) *cobra.Command {
	var title, author, kind string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := c.AddBook(cmd.Context(), title, author, ledger.BookKind(kind))
			if err != nil {
				return err
			}

			fmt.Printf("added book %s: %s\n", result.Book.ID, result.Summary)

			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "book title")
	cmd.Flags().StringVar(&author, "author", "", "book author")
	cmd.Flags().StringVar(&kind, "kind", string(ledger.KindPhysical), "book kind: physical, digital or audiobook")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")

	return cmd
}

func newRemoveCommand(c *coordinator.Coordinator) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <book-id>",
		Short: "Remove a book that is not on loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.RemoveBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Println(result.Summary)

			return nil
		},
	}
}

func newListCommand(c *coordinator.Coordinator) *cobra.Command {
	var filter string
	var page int
	var knownVersion uint64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog books, optionally filtered by title or author",
		RunE: func(cmd *cobra.Command, _ []string) error {
			request := coordinator.PageRequest{Index: page, KnownVersion: ledger.SnapshotVersionUint(knownVersion)}

			books, err := c.ListBooks(cmd.Context(), filter, request)
			if err != nil {
				return err
			}

			printBooks(books)

			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "case-insensitive substring match on title or author")
	cmd.Flags().IntVar(&page, "page", 0, "zero-based page index")
	cmd.Flags().Uint64Var(&knownVersion, "known-version", 0, "dataset version from a previous page")

	return cmd
}

func newBorrowCommand(c *coordinator.Coordinator) *cobra.Command {
	var borrower string

	cmd := &cobra.Command{
		Use:   "borrow <book-id>",
		Short: "Lend a book to a borrower",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.BorrowBook(cmd.Context(), args[0], borrower)
			if err != nil {
				return err
			}

			fmt.Printf("%s (loan %s)\n", result.Summary, result.Loan.ID)

			return nil
		},
	}

	cmd.Flags().StringVar(&borrower, "borrower", "", "name of the borrower")
	_ = cmd.MarkFlagRequired("borrower")

	return cmd
}

func newReturnCommand(c *coordinator.Coordinator) *cobra.Command {
	var byBook bool

	cmd := &cobra.Command{
		Use:   "return <loan-id|book-id>",
		Short: "Complete a loan, by loan id or with --book by book id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result coordinator.ReturnBookResult
			var err error

			if byBook {
				result, err = c.ReturnBookByID(cmd.Context(), args[0])
			} else {
				result, err = c.ReturnBook(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			fmt.Println(result.Summary)

			return nil
		},
	}

	cmd.Flags().BoolVar(&byBook, "book", false, "treat the argument as a book id")

	return cmd
}

func newExtendCommand(c *coordinator.Coordinator) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "extend <loan-id>",
		Short: "Move the due date of an active loan forward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.ExtendLoan(cmd.Context(), args[0], days)
			if err != nil {
				return err
			}

			fmt.Println(result.Summary)

			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", coordinator.DefaultExtensionDays, "additional days")

	return cmd
}

func newLoansCommand(c *coordinator.Coordinator) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "loans",
		Short: "List active loans with their due dates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loans, err := c.ActiveLoans(cmd.Context(), coordinator.PageRequest{Index: page})
			if err != nil {
				return err
			}

			printLoans(loans)

			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "zero-based page index")

	return cmd
}

func newReturnedCommand(c *coordinator.Coordinator) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "returned",
		Short: "List completed loans, most recently returned first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loans, err := c.ReturnedLoans(cmd.Context(), coordinator.PageRequest{Index: page})
			if err != nil {
				return err
			}

			printReturnedLoans(loans)

			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "zero-based page index")

	return cmd
}

func newDueSoonCommand(c *coordinator.Coordinator) *cobra.Command {
	var days, page int

	cmd := &cobra.Command{
		Use:   "due-soon",
		Short: "List active loans that are due within the next days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loans, err := c.LoansDueSoon(cmd.Context(), days, coordinator.PageRequest{Index: page})
			if err != nil {
				return err
			}

			printLoans(loans)

			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", lending.DefaultDueSoonThresholdDays, "days of notice")
	cmd.Flags().IntVar(&page, "page", 0, "zero-based page index")

	return cmd
}

func newOverdueCommand(c *coordinator.Coordinator) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List active loans past their due date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loans, err := c.OverdueLoans(cmd.Context(), coordinator.PageRequest{Index: page})
			if err != nil {
				return err
			}

			printLoans(loans)

			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "zero-based page index")

	return cmd
}

func newStatsCommand(c *coordinator.Coordinator) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and loan statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bookStats, err := c.BookStatistics(cmd.Context())
			if err != nil {
				return err
			}

			loanStats, err := c.LoanStatistics(cmd.Context())
			if err != nil {
				return err
			}

			printStatistics(bookStats, loanStats)

			return nil
		},
	}
}

func newHistoryCommand(c *coordinator.Coordinator) *cobra.Command {
	var transactionType string
	var page int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the transaction history, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, err := c.History(cmd.Context(), ledger.TransactionType(transactionType), coordinator.PageRequest{Index: page})
			if err != nil {
				return err
			}

			printHistory(history)

			return nil
		},
	}

	cmd.Flags().StringVar(&transactionType, "type", "", "filter by type: added, removed, borrowed or returned")
	cmd.Flags().IntVar(&page, "page", 0, "zero-based page index")

	return cmd
}

func newDraftCommand(c *coordinator.Coordinator, config *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Collect a new book over several invocations before committing it",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !config.Redis.SessionsEnabled() {
				return fmt.Errorf("draft commands need a configured redis session store")
			}
			return nil
		},
	}

	var sessionID, title, author, kind string

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store slot values for the session's draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft, err := c.ResumeBookDraft(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			if title != "" {
				draft.Title = title
			}
			if author != "" {
				draft.Author = author
			}
			if kind != "" {
				draft.Kind = ledger.BookKind(kind)
			}

			if err := c.SaveBookDraft(cmd.Context(), sessionID, draft); err != nil {
				return err
			}

			printDraft(draft)

			return nil
		},
	}
	setCmd.Flags().StringVar(&title, "title", "", "book title")
	setCmd.Flags().StringVar(&author, "author", "", "book author")
	setCmd.Flags().StringVar(&kind, "kind", "", "book kind: physical, digital or audiobook")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the session's draft and its missing slots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft, err := c.ResumeBookDraft(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			printDraft(draft)

			return nil
		},
	}

	commitCmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit the completed draft to the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := c.CommitBookDraft(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			fmt.Printf("added book %s: %s\n", result.Book.ID, result.Summary)

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&sessionID, "session", "", "session id carrying the draft")
	_ = cmd.MarkPersistentFlagRequired("session")

	cmd.AddCommand(setCmd, showCmd, commitCmd)

	return cmd
}

func printBooks(books ledger.Page[ledger.Book]) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tKIND\tSTATUS\tLOANS")
	for _, book := range books.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			book.ID, book.Title, book.Author, book.Kind, book.Status, book.LoanCount)
	}
	_ = w.Flush()

	printPageFooter(books.Index, books.TotalPages, books.TotalItems, uint64(books.SnapshotVersion), books.ListChanged)
}

func printLoans(loans ledger.Page[lending.ActiveLoan]) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOAN\tBOOK\tBORROWER\tDUE\tOVERDUE")
	for _, loan := range loans.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n",
			loan.ID, loan.BookID, loan.Borrower, loan.DueDate.Format(dateFormat), loan.Overdue)
	}
	_ = w.Flush()

	printPageFooter(loans.Index, loans.TotalPages, loans.TotalItems, uint64(loans.SnapshotVersion), loans.ListChanged)
}

func printReturnedLoans(loans ledger.Page[ledger.Loan]) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOAN\tBOOK\tBORROWER\tDUE\tRETURNED\tON TIME")
	for _, loan := range loans.Items {
		returnedAt := ""
		if loan.ReturnedAt != nil {
			returnedAt = loan.ReturnedAt.Format(dateFormat)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\n",
			loan.ID, loan.BookID, loan.Borrower, loan.DueDate.Format(dateFormat), returnedAt, loan.WasReturnedOnTime())
	}
	_ = w.Flush()

	printPageFooter(loans.Index, loans.TotalPages, loans.TotalItems, uint64(loans.SnapshotVersion), loans.ListChanged)
}

func printStatistics(bookStats catalog.Statistics, loanStats lending.Statistics) {
	fmt.Printf("books: %d total, %d available, %d on loan\n",
		bookStats.TotalBooks, bookStats.AvailableBooks, bookStats.LoanedBooks)
	if bookStats.MostLoanedBook != nil {
		fmt.Printf("most loaned book: %q by %s (%d loans)\n",
			bookStats.MostLoanedBook.Title, bookStats.MostLoanedBook.Author, bookStats.MostLoanedBook.LoanCount)
	}

	fmt.Printf("loans: %d total, %d active, %d completed, %d overdue\n",
		loanStats.TotalLoans, loanStats.ActiveLoans, loanStats.CompletedLoans, loanStats.OverdueLoans)
	if loanStats.CompletedLoans > 0 {
		fmt.Printf("returns: %d on time, %d late (%.0f%% on time)\n",
			loanStats.OnTimeReturns, loanStats.LateReturns, loanStats.ReturnRate*100)
	}
	if loanStats.MostFrequentBorrower != "" {
		fmt.Printf("most frequent borrower: %s (%d loans)\n",
			loanStats.MostFrequentBorrower, loanStats.MostFrequentBorrowerLoans)
	}
}

func printHistory(history ledger.Page[ledger.TransactionRecord]) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tTYPE\tSUMMARY")
	for _, record := range history.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			record.OccurredAt.Format(time.RFC3339), record.Type, record.Details)
	}
	_ = w.Flush()

	printPageFooter(history.Index, history.TotalPages, history.TotalItems, uint64(history.SnapshotVersion), history.ListChanged)
}

func printDraft(draft ledger.BookDraft) {
	fmt.Printf("title:  %s\nauthor: %s\nkind:   %s\n", draft.Title, draft.Author, draft.Kind)
	if missing := draft.MissingSlots(); len(missing) > 0 {
		fmt.Printf("missing slots: %v\n", missing)
	} else {
		fmt.Println("draft is complete, run 'shelfctl draft commit'")
	}
}

func printPageFooter(index int, totalPages int, totalItems int, version uint64, listChanged bool) {
	fmt.Printf("page %d/%d, %d items, dataset version %d\n", index+1, totalPages, totalItems, version)
	if listChanged {
		fmt.Println("note: the list changed since the version you supplied, page boundaries may have moved")
	}
}
