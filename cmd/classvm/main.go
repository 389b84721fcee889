package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"classvm/internal/config"
	"classvm/pkg/classfile"
	"classvm/pkg/diagnostic"
	"classvm/pkg/vm"
)

const mainDescriptor = "([Ljava/lang/String;)V"

func main() {
	rootCmd := &cobra.Command{
		Use:   "classvm",
		Short: "classvm — a miniature stack-oriented bytecode interpreter",
	}

	var configPath string
	var tracePath string
	var crashDir string

	runCmd := &cobra.Command{
		Use:   "run <class-file>",
		Short: "Load a class file and execute its main method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClass(args[0], configPath, tracePath, crashDir)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to a TOML engine-limits config")
	runCmd.Flags().StringVar(&tracePath, "trace", "", "write a gob-encoded execution trace to this path")
	runCmd.Flags().StringVar(&crashDir, "crash-dir", "", "directory to drop a crash snapshot in on FatalVMError")

	var disasmMethod string
	var disasmConfigPath string
	disasmCmd := &cobra.Command{
		Use:   "disasm <class-file>",
		Short: "Disassemble one or all methods in a class file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return disasmClass(args[0], disasmMethod, disasmConfigPath)
		},
	}
	disasmCmd.Flags().StringVar(&disasmMethod, "method", "", "disassemble only this method (default: all)")
	disasmCmd.Flags().StringVar(&disasmConfigPath, "config", "", "path to a TOML engine-limits config")

	traceCmd := &cobra.Command{
		Use:   "trace <trace.gob>",
		Short: "Print a previously captured execution trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTrace(args[0])
		},
	}

	rootCmd.AddCommand(runCmd, disasmCmd, traceCmd)
	if err := rootCmd.Execute(); err != nil {
		if dErr, ok := err.(*diagnostic.Error); ok {
			fmt.Fprintln(os.Stderr, dErr.Error())
			os.Exit(dErr.Kind.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runClass(classPath, configPath, tracePath, crashDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	class, err := classfile.Load(classPath, cfg.Limits.MaxCodeSize)
	if err != nil {
		return diagnostic.IOf(err, "failed to load %s", classPath)
	}
	defer class.Release()

	method, ok := classfile.FindMethod(class, "main", mainDescriptor)
	if !ok {
		return diagnostic.MissingEntryf("no main%s method in %s", mainDescriptor, classPath)
	}

	heap := vm.NewHeap()
	inv := vm.NewInvoker(class, heap)
	inv.MaxCallDepth = cfg.Limits.MaxCallDepth

	var tracer *vm.GobTracer
	if tracePath != "" || cfg.Trace.Enabled || crashDir != "" {
		tracer = vm.NewGobTracer(heap)
		inv.Tracer = tracer
	}

	locals := make([]int32, method.MaxLocals)
	result, err := inv.Invoke(method, locals)

	sink := tracePath
	if sink == "" {
		sink = cfg.Trace.Sink
	}
	if tracer != nil && sink != "" {
		if flushErr := tracer.Flush(sink); flushErr != nil {
			fmt.Fprintf(os.Stderr, "classvm: failed to write trace: %v\n", flushErr)
		}
	}

	if err != nil {
		if crashDir != "" {
			writeCrashSnapshot(crashDir, tracer)
		}
		return err
	}
	if result.HasValue {
		return diagnostic.MissingEntryf("main%s in %s returned a value", mainDescriptor, classPath)
	}
	return nil
}

func writeCrashSnapshot(dir string, tracer *vm.GobTracer) {
	if tracer == nil {
		return
	}
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		fmt.Fprintf(os.Stderr, "classvm: failed to create crash dir: %v\n", mkErr)
		return
	}
	path := dir + "/crash.gob"
	if flushErr := tracer.Flush(path); flushErr != nil {
		fmt.Fprintf(os.Stderr, "classvm: failed to write crash snapshot: %v\n", flushErr)
		return
	}
	fmt.Fprintf(os.Stderr, "classvm: crash snapshot written to %s\n", path)
}

func disasmClass(classPath, methodName, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	class, err := classfile.Load(classPath, cfg.Limits.MaxCodeSize)
	if err != nil {
		return diagnostic.IOf(err, "failed to load %s", classPath)
	}
	defer class.Release()

	for _, m := range class.Methods {
		if methodName != "" && m.Name != methodName {
			continue
		}
		fmt.Printf("%s%s:\n", m.Name, m.Descriptor)
		fmt.Print(vm.Disassemble(&m))
	}
	return nil
}

func printTrace(tracePath string) error {
	snap, err := vm.LoadSnapshot(tracePath)
	if err != nil {
		return diagnostic.IOf(err, "trace: failed to read %s", tracePath)
	}
	for _, step := range snap.Steps {
		fmt.Printf("  pc=%-6d opcode=0x%02x (%s) stack=%d\n",
			step.PC, step.Opcode, vm.Mnemonic(vm.Opcode(step.Opcode)), step.StackDepth)
	}
	fmt.Printf("heap size at capture: %d\n", snap.HeapSize)
	return nil
}
