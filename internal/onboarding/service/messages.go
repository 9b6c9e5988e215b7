package service

// Canned conversation texts. Kept together so the tone stays consistent and
// tests can reference them.
const (
	msgCancelled = "I've stopped the current process. Is there anything else I can help you with? You can ask about your balance or say 'open account' to start over."

	msgWelcome = "Hello! I am your banking assistant. I can help you open an account, check your balance, or answer questions about your application."

	msgFallback = "I didn't understand that. How can I help?"

	msgOpenAccount = "Sure, I can help you open an account. Please upload a clear photo of the FRONT side of your identity card."

	msgAwaitingIDFront = "Please upload the FRONT side of your identity card to proceed."
	msgAwaitingIDBack  = "Please upload the BACK side of your identity card (with address) to proceed."
	msgAwaitingTaxDoc  = "Please upload your tax card photo to proceed."
	msgAwaitingLive    = "Please upload a live photo of yourself to complete verification."

	msgIDFrontConfirmed = "Great! Identity details verified. Now, please upload the BACK side of your identity card (with address)."
	msgIDBackConfirmed  = "Address details verified. Now, please upload your tax card."

	msgTransientFailure = "There was a temporary problem reaching our verification service. Please try again in a moment."

	msgNotIDFront = "This does not appear to be a valid identity card front. Please upload a clear photo."
	msgNotIDBack  = "This does not appear to be a valid identity card back (address side). Please upload a clear photo."
	msgNotTaxCard = "This does not appear to be a valid tax card. Please upload a clear photo of your tax card."

	msgMissingIDFields  = "Could not extract critical details (Name, DOB, ID number). Please upload a clearer image."
	msgMissingTaxFields = "Could not extract critical details (tax ID, father's name). Please upload a clearer image."

	msgStorageFailure = "Failed to store the document image. Please upload it again."

	msgNotExpectingIdentity = "Not expecting an identity card right now."
	msgNotExpectingTax      = "Not expecting a tax card right now."
	msgNotExpectingLive     = "Not expecting a live photo right now."

	msgSessionCorrupt = "Your identity document is missing from this session, so verification cannot continue. Please say 'open account' to restart the process."

	msgNoFaceInDocument = "Could not detect a clear face on your identity card. Verification requires a clear face photo. Please say 'open account' to restart with a clearer identity card."

	msgVerified  = "Verification successful! Application submitted."
	msgManualKYC = "Face verification failed 3 times. Your application has been submitted, but you must visit a branch to complete manual KYC."

	msgCommitFailed = "Your verification finished, but we could not save the application right now. Please contact support with your details."

	msgCompleted = "Your application has been submitted. You'll be notified when a reviewer takes a look."

	msgNoAccount = "You don't have an active account linked yet."
)
