package oracle

import (
	"context"
	"time"

	"k8s.io/klog/v2"
)

// instrumented 为每次调用加超时、日志与错误分类
type instrumented struct {
	next     Client
	provider string
	timeout  time.Duration
}

// Instrument 包装客户端；timeout <= 0 时不设置单次调用超时
func Instrument(next Client, provider string, timeout time.Duration) Client {
	return &instrumented{next: next, provider: provider, timeout: timeout}
}

func (c *instrumented) Chat(ctx context.Context, req *Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	klog.V(6).Infof("[Oracle] Chat 开始: provider=%s, turns=%d, structured=%t", c.provider, len(req.Turns), req.Schema != nil)
	for i, t := range req.Turns {
		klog.V(8).Infof("[Oracle]   Turn[%d]: role=%s, content=%s", i, t.Role, t.Content)
	}

	text, err := c.next.Chat(ctx, req)
	if err != nil {
		err = Classify(c.provider, err)
		klog.Errorf("[Oracle] Chat 失败: provider=%s, kind=%s, elapsed=%s, err=%v", c.provider, KindOf(err), time.Since(start), err)
		return "", err
	}

	klog.V(6).Infof("[Oracle] Chat 完成: provider=%s, length=%d, elapsed=%s", c.provider, len(text), time.Since(start))
	return text, nil
}
