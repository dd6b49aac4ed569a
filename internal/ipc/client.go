package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ping checks the daemon is reachable.
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.client.Call("Backlog.Ping", PingRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats retrieves completion statistics.
func (c *Client) Stats() (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.client.Call("Backlog.Stats", StatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchNext asks the scheduler for the next feature to work on.
func (c *Client) FetchNext() (*FetchNextResponse, error) {
	var resp FetchNextResponse
	if err := c.client.Call("Backlog.FetchNext", FetchNextRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Regression requests a random sample of passing features.
func (c *Client) Regression(limit int) (*RegressionResponse, error) {
	var resp RegressionResponse
	if err := c.client.Call("Backlog.Regression", RegressionRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarkPassing marks a feature as passing.
func (c *Client) MarkPassing(id int64) (*MarkPassingResponse, error) {
	var resp MarkPassingResponse
	if err := c.client.Call("Backlog.MarkPassing", MarkPassingRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Skip moves a feature to the back of the queue.
func (c *Client) Skip(id int64) (*SkipResponse, error) {
	var resp SkipResponse
	if err := c.client.Call("Backlog.Skip", SkipRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordFailure records a failure against a feature.
func (c *Client) RecordFailure(id int64, message string) (*RecordFailureResponse, error) {
	var resp RecordFailureResponse
	if err := c.client.Call("Backlog.RecordFailure", RecordFailureRequest{ID: id, Message: message}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateBulk creates a batch of features in order.
func (c *Client) CreateBulk(drafts []Draft) (*CreateBulkResponse, error) {
	var resp CreateBulkResponse
	if err := c.client.Call("Backlog.CreateBulk", CreateBulkRequest{Features: drafts}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List retrieves the full backlog ordered by (priority, id).
func (c *Client) List() (*ListResponse, error) {
	var resp ListResponse
	if err := c.client.Call("Backlog.List", ListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get retrieves a single feature.
func (c *Client) Get(id int64) (*GetResponse, error) {
	var resp GetResponse
	if err := c.client.Call("Backlog.Get", GetRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Backlog.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestStop asks the agent loop to stop after the current feature.
func (c *Client) RequestStop() (*RequestStopResponse, error) {
	var resp RequestStopResponse
	if err := c.client.Call("Backlog.RequestStop", RequestStopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearStop removes a pending stop request.
func (c *Client) ClearStop() (*ClearStopResponse, error) {
	var resp ClearStopResponse
	if err := c.client.Call("Backlog.ClearStop", ClearStopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
