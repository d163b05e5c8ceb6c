package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/arthur-debert/bonsetup/cmd/bonsetup"
	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/ui/styles"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	rootCmd := bonsetup.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	var reported *bonsetup.ReportedError
	if !stderrors.As(err, &reported) {
		errorStyle := styles.GetStyle("Error")
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
	}
	os.Exit(errors.ExitCode(err))
}
