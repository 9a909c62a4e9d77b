package dcrrewards

import "github.com/planetdecred/dcrrewards/politeia"

func (c *Controller) AddNotificationListener(notificationListener WorkflowListener, uniqueIdentifier string) error {
	c.notificationListenersMu.Lock()
	defer c.notificationListenersMu.Unlock()

	if _, ok := c.notificationListeners[uniqueIdentifier]; ok {
		return ErrListenerAlreadyExist
	}

	c.notificationListeners[uniqueIdentifier] = notificationListener
	return nil
}

func (c *Controller) RemoveNotificationListener(uniqueIdentifier string) {
	c.notificationListenersMu.Lock()
	defer c.notificationListenersMu.Unlock()

	delete(c.notificationListeners, uniqueIdentifier)
}

func (c *Controller) listeners() []WorkflowListener {
	c.notificationListenersMu.RLock()
	defer c.notificationListenersMu.RUnlock()

	listeners := make([]WorkflowListener, 0, len(c.notificationListeners))
	for _, notificationListener := range c.notificationListeners {
		listeners = append(listeners, notificationListener)
	}
	return listeners
}

func (c *Controller) publishLoadStarted() {
	for _, notificationListener := range c.listeners() {
		notificationListener.OnLoadStarted()
	}
}

func (c *Controller) publishLoaded(snapshot *Snapshot) {
	for _, notificationListener := range c.listeners() {
		notificationListener.OnLoaded(snapshot)
	}
}

func (c *Controller) publishLoadFailed(err error) {
	for _, notificationListener := range c.listeners() {
		notificationListener.OnLoadFailed(err)
	}
}

func (c *Controller) publishClaimStateChanged(proposalID politeia.ProposalID, state ClaimState, err error) {
	for _, notificationListener := range c.listeners() {
		notificationListener.OnClaimStateChanged(proposalID, state, err)
	}
}
