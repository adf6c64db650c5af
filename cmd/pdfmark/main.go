package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"pdfmark/internal/annotate"
	"pdfmark/internal/clipboard"
	"pdfmark/internal/config"
	"pdfmark/internal/export"
	"pdfmark/internal/hotkey"
	"pdfmark/internal/notify"
	"pdfmark/internal/pdfdoc"
	"pdfmark/internal/sample"
	"pdfmark/internal/server"
	"pdfmark/internal/session"
	"pdfmark/internal/storage"
	"pdfmark/internal/tray"
)

const version = "v1.0.0"

// snapshotRetention 页面快照保留时间
const snapshotRetention = 7 * 24 * time.Hour

var (
	cfg *config.Config
	log *logrus.Logger
)

func main() {
	// 命令行参数
	fileFlag := flag.String("file", "", "要标注的 PDF 文件（不存在时生成示例文档）")
	addrFlag := flag.String("addr", "", "HTTP 监听地址，如 127.0.0.1:8765")
	trayFlag := flag.Bool("tray", false, "启用系统托盘和全局保存快捷键")
	setHotkeyFlag := flag.String("set-hotkey", "", "设置保存快捷键，格式：ctrl+alt+s")
	configFlag := flag.String("config", "", "配置文件路径（默认 "+config.GetConfigPath()+"）")
	versionFlag := flag.Bool("version", false, "显示版本信息")
	flag.Parse()

	if *versionFlag {
		fmt.Println("PDFMark", version)
		fmt.Println("PDF 页面标注工具")
		return
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = config.GetConfigPath()
	}

	var err error
	cfg, err = config.LoadFrom(configPath)
	log = newLogger(cfg.Log.Level)
	if err != nil {
		log.WithError(err).Warn("加载配置失败，使用默认配置")
	}

	if *setHotkeyFlag != "" {
		if err := updateHotkey(*setHotkeyFlag); err != nil {
			log.WithError(err).Error("设置快捷键失败")
			os.Exit(1)
		}
		fmt.Println("快捷键已设置为:", cfg.GetHotkeyString())
		return
	}

	if *fileFlag != "" {
		cfg.Document.Path = *fileFlag
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}

	if *trayFlag {
		// 托盘和热键需要在主线程运行
		hotkey.Run(func() { exitOnError(runWithTray()) })
		return
	}
	exitOnError(runServer())
}

func exitOnError(err error) {
	if err != nil {
		log.WithError(err).Error("退出")
		os.Exit(1)
	}
}

// newLogger 根据配置的级别创建日志
func newLogger(level string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	}
	return l
}

func component(name string) *logrus.Entry {
	return log.WithField("component", name)
}

// app 组装好的各个模块
type app struct {
	sess   *session.Session
	svc    *export.Service
	store  *storage.Storage
	server *server.Server
}

func setup(ctx context.Context, extra ...export.ServiceOption) (*app, error) {
	created, err := sample.EnsureFile(cfg.Document.Path, sample.DefaultPages)
	if err != nil {
		return nil, fmt.Errorf("准备文档 %s: %w", cfg.Document.Path, err)
	}
	if created {
		log.WithField("path", cfg.Document.Path).Info("已生成示例文档")
	}

	doc, err := os.ReadFile(cfg.Document.Path)
	if err != nil {
		return nil, fmt.Errorf("读取文档: %w", err)
	}

	style := annotate.DefaultStyle()
	style.PenWidth = cfg.Annotate.PenWidth
	style.FontSize = cfg.Annotate.FontSize

	sess := session.New(pdfdoc.NewRenderer(),
		session.WithScale(cfg.Document.Scale),
		session.WithStyle(style),
		session.WithLogger(component("session")),
	)
	if err := sess.Load(ctx, doc); err != nil {
		return nil, fmt.Errorf("加载文档 %s: %w", cfg.Document.Path, err)
	}

	if err := cfg.EnsureStorageDir(); err != nil {
		return nil, fmt.Errorf("创建输出目录: %w", err)
	}
	store := storage.NewStorage(cfg.Storage.Directory, cfg.Storage.Filename, cfg.Storage.Format, cfg.Storage.Quality)
	if n, err := store.Cleanup(snapshotRetention); err == nil && n > 0 {
		log.WithField("removed", n).Info("已清理过期快照")
	}

	var opts []export.ServiceOption
	if cfg.Behavior.ShowNotification {
		opts = append(opts, export.WithNotifier(notify.NewNotifier(component("notify"))))
	}
	if cfg.Behavior.CopyPath {
		if clipboard.Available() {
			opts = append(opts, export.WithClipboard(clipboard.New()))
		} else {
			log.Warn("当前环境不支持剪贴板，跳过复制路径")
		}
	}

	opts = append(opts, extra...)

	// pdfcpu 配置只在启动时创建一次
	pipeline := export.NewPipeline(export.NewConfiguration(), component("export"))
	svc := export.NewService(sess, pipeline, store, component("export"), opts...)

	srv := server.New(sess, svc, store, cfg.Storage.Filename, component("server"))

	log.WithFields(logrus.Fields{
		"document": cfg.Document.Path,
		"pages":    sess.State().PageCount,
		"output":   store.Path(),
	}).Info("PDFMark " + version + " 已启动")

	return &app{sess: sess, svc: svc, store: store, server: srv}, nil
}

// listen 监听并按配置打开浏览器
func listen() (net.Listener, string, error) {
	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return nil, "", fmt.Errorf("监听 %s: %w", cfg.Server.Addr, err)
	}
	url := "http://" + ln.Addr().String() + "/"
	log.WithField("url", url).Info("编辑页面")
	if cfg.Server.OpenBrowser {
		openTarget(url)
	}
	return ln, url, nil
}

func runServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.sess.Close()

	ln, _, err := listen()
	if err != nil {
		return err
	}
	return a.server.Serve(ctx, ln)
}

func runWithTray() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 托盘先创建，保存结果显示在托盘提示里
	t := tray.NewTray()
	a, err := setup(ctx, export.WithStatus(t))
	if err != nil {
		return err
	}
	defer a.sess.Close()

	ln, url, err := listen()
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.server.Serve(ctx, ln) }()

	onSave := func() { saveDocument(ctx, a.svc) }

	// 创建并注册热键
	binding, err := hotkey.Parse(cfg.Hotkey.Modifiers, cfg.Hotkey.Key)
	if err != nil {
		return fmt.Errorf("快捷键配置无效: %w", err)
	}
	hkMgr := hotkey.NewManager(component("hotkey"))
	if err := hkMgr.Register(binding, onSave); err != nil {
		log.WithError(err).Warn("注册热键失败，可以通过 -set-hotkey 设置其他快捷键")
	} else {
		defer hkMgr.Unregister()
		hkMgr.ListenAsync()
	}

	t.SetHotkeyText(cfg.GetHotkeyString())
	t.SetOnOpenEditor(func() { openTarget(url) })
	t.SetOnSave(onSave)
	t.SetOnOpenDir(func() { openTarget(a.store.GetDirectory()) })
	t.SetOnQuit(stop)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	// 运行托盘（阻塞）
	t.Run()
	stop()
	return <-serveErr
}

// saveDocument 快捷键或托盘触发的保存，结果由导出服务通知
func saveDocument(ctx context.Context, svc *export.Service) {
	_, _ = svc.Save(ctx)
}

// openTarget 用系统默认程序打开目录或网址
func openTarget(target string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		// explorer.exe 同时支持目录和网址
		cmd = exec.Command("explorer.exe", target)
	case "darwin":
		cmd = exec.Command("open", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}

	if err := cmd.Start(); err != nil {
		log.WithError(err).WithField("target", target).Warn("打开失败")
		return
	}
	go func() { _ = cmd.Wait() }()
}

func updateHotkey(hotkeyStr string) error {
	// 解析快捷键字符串，如 "ctrl+alt+s"
	modifiers, key, err := config.ParseHotkey(hotkeyStr)
	if err != nil {
		return err
	}
	if _, err := hotkey.Parse(modifiers, key); err != nil {
		return err
	}
	return cfg.SetHotkey(modifiers, key)
}
