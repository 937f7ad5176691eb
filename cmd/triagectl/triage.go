package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"resume-triage/internal/bootstrap"
	"resume-triage/internal/config"
	"resume-triage/internal/constants"
	"resume-triage/internal/logger"
	"resume-triage/internal/metrics"
	"resume-triage/internal/parser"
	"resume-triage/internal/processor"
	"resume-triage/internal/session"
	"resume-triage/internal/storage"
	"resume-triage/internal/triage"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Rank a directory of resumes against a job",
	RunE:  runTriage,
}

var (
	triageConfig          string
	triageDir             string
	triageJob             string
	triageKeywords        string
	triageDescriptionFile string
	triageOut             string
)

func init() {
	triageCmd.Flags().StringVarP(&triageConfig, "config", "c", "", "Path to config file")
	triageCmd.Flags().StringVarP(&triageDir, "dir", "d", "", "Directory with PDF resumes (required)")
	triageCmd.Flags().StringVarP(&triageJob, "job", "j", "", "Job name used in the archive name (required)")
	triageCmd.Flags().StringVarP(&triageKeywords, "keywords", "k", "", "Comma separated keywords")
	triageCmd.Flags().StringVar(&triageDescriptionFile, "description-file", "", "File with the job description, used when --keywords is empty")
	triageCmd.Flags().StringVarP(&triageOut, "out", "o", ".", "Directory where the archive is written")

	for _, name := range []string{"dir", "job"} {
		if err := triageCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	triageCmd.MarkFlagsMutuallyExclusive("keywords", "description-file")

	rootCmd.AddCommand(triageCmd)
}

func runTriage(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig(triageConfig)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	log := logger.Component("triagectl")

	description := ""
	if triageDescriptionFile != "" {
		data, err := os.ReadFile(triageDescriptionFile)
		if err != nil {
			return fmt.Errorf("读取岗位描述失败: %w", err)
		}
		description = string(data)
	}

	workDir, err := os.MkdirTemp("", "triagectl-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)
	files, err := storage.NewLocalFileStore(workDir, log)
	if err != nil {
		return err
	}

	pdf, err := parser.NewEinoPDFTextExtractor(ctx,
		parser.WithEinoLogger(logger.Component("pdf")),
		parser.WithPDFTimeout(config.GetDuration(cfg.PDF.Timeout, 0)),
	)
	if err != nil {
		return fmt.Errorf("创建PDF提取器失败: %w", err)
	}
	terms, err := bootstrap.NewTermExtractor(ctx, cfg, log)
	if err != nil {
		return err
	}
	services, err := bootstrap.NewServices(cfg, &storage.Storage{Files: files}, pdf, terms, metrics.New(constants.MetricsNamespace), log)
	if err != nil {
		return err
	}

	return triageDirectory(ctx, cmd.OutOrStdout(), services, triageOptions{
		Dir:         triageDir,
		Job:         triageJob,
		Keywords:    triageKeywords,
		Description: description,
		Out:         triageOut,
	})
}

type triageOptions struct {
	Dir         string
	Job         string
	Keywords    string
	Description string
	Out         string
}

// triageDirectory 入库目录下所有 PDF，输出分组摘要并写出压缩包
func triageDirectory(ctx context.Context, w io.Writer, svc *bootstrap.Services, opts triageOptions) error {
	uploads, err := readUploads(opts.Dir)
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		return fmt.Errorf("目录 %s 中没有 PDF 文件", opts.Dir)
	}

	store, err := session.NewManager().Create()
	if err != nil {
		return err
	}
	for _, r := range svc.Resumes.IngestBatch(ctx, store, uploads) {
		if r.Status == processor.IngestStatusFailed {
			fmt.Fprintf(w, "! %s: %s\n", r.Filename, r.Error)
		}
	}
	fmt.Fprintf(w, "%d/%d currículos processados\n", store.Len(), len(uploads))

	res, err := svc.Triage.Triage(ctx, store, processor.TriageRequest{
		JobName:     opts.Job,
		Keywords:    opts.Keywords,
		Description: opts.Description,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Palavras-chave: %s\n", res.Terms.String())
	if res.Export.IsEmpty() {
		fmt.Fprintln(w, "Nenhum currículo corresponde às palavras-chave informadas.")
		return nil
	}
	for _, g := range res.Groups {
		names := make([]string, 0, len(g.Members))
		for _, rec := range g.Members {
			names = append(names, rec.Filename)
		}
		fmt.Fprintf(w, "%s: %s\n", triage.GroupTitle(g.Count), strings.Join(names, ", "))
	}

	if err := os.MkdirAll(opts.Out, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	path := filepath.Join(opts.Out, res.Export.Filename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建压缩包失败: %w", err)
	}
	if err := svc.Triage.WriteArchive(ctx, f, res.Export.Entries); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Arquivo gerado: %s\n", path)
	return nil
}

func readUploads(dir string) ([]processor.Upload, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取目录失败: %w", err)
	}
	var uploads []processor.Upload
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("读取 %s 失败: %w", e.Name(), err)
		}
		uploads = append(uploads, processor.Upload{Filename: e.Name(), Data: data})
	}
	sort.Slice(uploads, func(i, j int) bool { return uploads[i].Filename < uploads[j].Filename })
	return uploads, nil
}
